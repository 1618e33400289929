package models

// GameRound is a round record as published by the upstream history API.
type GameRound struct {
	ID      int64  `json:"id"`
	Phien   int64  `json:"Phien"`
	KetQua  Result `json:"Ket_qua"`
	Tong    int    `json:"Tong"`
	XucXac1 int    `json:"Xuc_xac_1"`
	XucXac2 int    `json:"Xuc_xac_2"`
	XucXac3 int    `json:"Xuc_xac_3"`
}

// PredictionResult is the payload served by the prediction endpoint.
type PredictionResult struct {
	ID            int64  `json:"id"`
	Phien         int64  `json:"Phien"`
	KetQua        Result `json:"Ket_qua"`
	Tong          int    `json:"Tong"`
	XucXac1       int    `json:"Xuc_xac_1"`
	XucXac2       int    `json:"Xuc_xac_2"`
	XucXac3       int    `json:"Xuc_xac_3"`
	Pattern       string `json:"Pattern"`
	PhienTiepTheo int64  `json:"phien_tiep_theo"`
	DuDoan        Result `json:"Du_doan"`
}

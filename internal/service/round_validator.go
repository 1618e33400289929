package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// taiMinTotal is the smallest dice total that counts as Tài.
const taiMinTotal = 11

// RoundIssue is a validation finding for one upstream round.
type RoundIssue struct {
	Phien  int64
	Errors []string
}

// RoundValidator checks upstream rounds for internal consistency. Findings
// are advisory: only rounds with an unknown label are ever dropped, by the
// history normalizer.
type RoundValidator struct {
	logger *logrus.Entry
}

// NewRoundValidator creates a new round validator
func NewRoundValidator(logger *logrus.Logger) *RoundValidator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoundValidator{logger: logger.WithField("component", "round_validator")}
}

// ValidateRound validates one round's fields and their consistency
func (v *RoundValidator) ValidateRound(r models.GameRound) []string {
	var errors []string

	if r.Phien <= 0 {
		errors = append(errors, fmt.Sprintf("Phien must be positive, got %d", r.Phien))
	}
	if !r.KetQua.Valid() {
		errors = append(errors, fmt.Sprintf("unknown Ket_qua %q", r.KetQua))
	}

	dice := []int{r.XucXac1, r.XucXac2, r.XucXac3}
	diceValid := true
	for i, d := range dice {
		if d < 1 || d > 6 {
			errors = append(errors, fmt.Sprintf("Xuc_xac_%d must be 1-6, got %d", i+1, d))
			diceValid = false
		}
	}
	if diceValid && r.Tong != dice[0]+dice[1]+dice[2] {
		errors = append(errors, fmt.Sprintf("Tong %d does not match dice sum %d", r.Tong, dice[0]+dice[1]+dice[2]))
	}

	if r.KetQua.Valid() && r.Tong >= 3 && r.Tong <= 18 {
		expected := models.ResultXiu
		if r.Tong >= taiMinTotal {
			expected = models.ResultTai
		}
		if r.KetQua != expected {
			errors = append(errors, fmt.Sprintf("Ket_qua %s inconsistent with Tong %d", r.KetQua, r.Tong))
		}
	}

	return errors
}

// ValidateHistory validates rounds (newest first) and their ordering.
func (v *RoundValidator) ValidateHistory(rounds []models.GameRound) []RoundIssue {
	var issues []RoundIssue
	for i, r := range rounds {
		errors := v.ValidateRound(r)
		if i > 0 && r.Phien >= rounds[i-1].Phien {
			errors = append(errors, fmt.Sprintf("Phien %d is not older than the round before it (%d)", r.Phien, rounds[i-1].Phien))
		}
		if len(errors) > 0 {
			issues = append(issues, RoundIssue{Phien: r.Phien, Errors: errors})
		}
	}

	if len(issues) > 0 {
		v.logger.WithFields(logrus.Fields{
			"rounds":  len(rounds),
			"invalid": len(issues),
			"first":   issues[0].Errors,
		}).Warn("Upstream history has inconsistent rounds")
	}
	return issues
}

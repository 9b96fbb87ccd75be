package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/tournament-sim/internal/odds"
	"github.com/stitts-dev/tournament-sim/internal/simulator"
	"github.com/stitts-dev/tournament-sim/pkg/utils"
)

type ProbabilityHandler struct{}

func NewProbabilityHandler() *ProbabilityHandler {
	return &ProbabilityHandler{}
}

type winProbabilityResponse struct {
	StrengthA      float64                      `json:"strength_a"`
	StrengthB      float64                      `json:"strength_b"`
	ExpectedGoalsA float64                      `json:"expected_goals_a"`
	ExpectedGoalsB float64                      `json:"expected_goals_b"`
	Outcome        simulator.MatchProbabilities `json:"outcome"`
	WinProbability float64                      `json:"win_probability"`

	// Market is the overround-free split implied by home/draw/away odds,
	// present only when all three were given.
	Market *simulator.MatchProbabilities `json:"market,omitempty"`
}

// GetWinProbability returns the knockout win chance of a over b
func (h *ProbabilityHandler) GetWinProbability(c *gin.Context) {
	a, ok := strengthParam(c, "a")
	if !ok {
		return
	}
	b, ok := strengthParam(c, "b")
	if !ok {
		return
	}

	market, ok := marketParams(c)
	if !ok {
		return
	}

	lA, lB := simulator.ExpectedGoals(a, b)
	utils.SendSuccess(c, winProbabilityResponse{
		StrengthA:      a,
		StrengthB:      b,
		ExpectedGoalsA: lA,
		ExpectedGoalsB: lB,
		Outcome:        simulator.Outcome(a, b),
		WinProbability: simulator.WinProbability(a, b),
		Market:         market,
	})
}

// marketParams reads optional three-way decimal odds. Either all of home,
// draw and away are given or none.
func marketParams(c *gin.Context) (*simulator.MatchProbabilities, bool) {
	raw := [3]string{c.Query("home"), c.Query("draw"), c.Query("away")}
	if raw == [3]string{} {
		return nil, true
	}

	var prices [3]float64
	for i, r := range raw {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			utils.SendValidationError(c, "Invalid odds", "home, draw and away must all be decimal odds")
			return nil, false
		}
		prices[i] = v
	}

	win, draw, loss, err := odds.RemoveVig3(prices[0], prices[1], prices[2])
	if err != nil {
		utils.SendValidationError(c, "Invalid odds", err.Error())
		return nil, false
	}
	return &simulator.MatchProbabilities{Win: win, Draw: draw, Loss: loss}, true
}

func strengthParam(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		utils.SendValidationError(c, "Missing strength", "query parameter "+name+" is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		utils.SendValidationError(c, "Invalid strength", err.Error())
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		utils.SendError(c, http.StatusBadRequest, utils.NewAppError(utils.ErrCodeNumericDegenerate, "Strengths must be finite", name+"="+raw))
		return 0, false
	}
	return v, true
}

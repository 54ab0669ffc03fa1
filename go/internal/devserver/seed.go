package devserver

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/gamenight/liveboard/go/internal/models"
)

// SeedDemo fills the board with plausible demo data for local runs
func SeedDemo(board *Board) {
	teamIDs := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		team := board.CreateTeam(models.CreateTeamRequest{
			Name:        fmt.Sprintf("Team %s", gofakeit.Animal()),
			Seed:        i + 1,
			Color:       gofakeit.HexColor(),
			Description: gofakeit.Sentence(8),
		})
		teamIDs = append(teamIDs, team.ID)

		for j := 0; j < gofakeit.Number(1, 4); j++ {
			board.AddPoints(team.ID, models.AddPointsRequest{
				Source:    gofakeit.RandomString([]string{"Quiz", "Bracket", "Challenge", "Bonus"}),
				Points:    gofakeit.Number(-20, 100),
				Comment:   gofakeit.Sentence(4),
				UpdatedBy: "seed",
			})
		}
	}

	event := board.CreateEvent(models.CreateEventRequest{
		Title: fmt.Sprintf("%s Showdown", gofakeit.NounAbstract()),
		Game:  gofakeit.RandomString([]string{"Rocket League", "Smash", "Mario Kart", "Valorant"}),
		Details: models.EventDetails{
			PrizePool: fmt.Sprintf("%d pts", gofakeit.Number(100, 500)),
			Format:    "Best of 3",
			Rules:     gofakeit.Sentence(10),
			Schedule:  "tonight",
		},
	})

	scoreA, scoreB := gofakeit.Number(0, 3), gofakeit.Number(0, 3)
	board.UpdateEvent(event.ID, models.EventPatch{
		Matches: &[]models.Match{
			{
				ID:     "m1",
				TeamA:  teamIDs[0],
				TeamB:  teamIDs[1],
				ScoreA: &scoreA,
				ScoreB: &scoreB,
				Status: models.MatchLive,
			},
			{
				ID:     "m2",
				TeamA:  teamIDs[2],
				TeamB:  teamIDs[3],
				Status: models.MatchScheduled,
			},
		},
		Bracket: &[]models.BracketMatch{
			{ID: "b1", Round: 1, P1: models.BracketSlot{ID: teamIDs[0]}, P2: models.BracketSlot{ID: teamIDs[1]}, NextMatchID: "b3", Status: models.BracketScheduled},
			{ID: "b2", Round: 1, P1: models.BracketSlot{ID: teamIDs[2]}, P2: models.BracketSlot{ID: teamIDs[3]}, NextMatchID: "b3", Status: models.BracketScheduled},
			{ID: "b3", Round: 2, Status: models.BracketScheduled},
		},
	})

	board.CreateChallenge(models.Challenge{
		Title:    "Trivia Blitz",
		Question: gofakeit.Question(),
		Answer:   gofakeit.Word(),
		Points:   gofakeit.Number(10, 50),
		GameType: "quiz",
	})
}

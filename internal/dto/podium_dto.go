package dto

import "github.com/edulearn-io/edulearn-go-api/internal/models"

// PodiumRow is one ranked leaderboard entry. Position is 1-based and nil for
// an unranked student (no ledger entry or zero accumulated XP).
type PodiumRow struct {
	Position            *int   `json:"position"`
	StudentID           uint   `json:"student_id"`
	StudentName         string `json:"student_name"`
	StudentEmail        string `json:"student_email"`
	TotalBonusPoints    int    `json:"total_bonus_points"`
	ChallengesCompleted int    `json:"challenges_completed"`
}

// NewPodiumRow projects a ledger entry at the given 1-based position.
func NewPodiumRow(score models.StudentScore, position int) PodiumRow {
	row := PodiumRow{
		StudentID:           score.StudentID,
		TotalBonusPoints:    score.TotalBonusPoints,
		ChallengesCompleted: score.ChallengesCompleted,
	}

	if position > 0 {
		row.Position = &position
	}

	if score.Student.ID != 0 {
		row.StudentName = score.Student.Name
		row.StudentEmail = score.Student.Email
	}

	return row
}

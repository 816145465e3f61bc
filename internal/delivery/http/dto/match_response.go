package dto

import "github.com/google/uuid"

type SeekerMatchResponse struct {
	SeekerID      uuid.UUID `json:"seeker_id"`
	SeekerName    string    `json:"seeker_name"`
	Email         string    `json:"email"`
	SkillScore    float64   `json:"skill_score"`
	DistanceKm    float64   `json:"distance_km"`
	CombinedScore float64   `json:"combined_score"`
	MatchedSkills []string  `json:"matched_skills"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	LocationName  *string   `json:"location_name"`
}

type TaskMatchResponse struct {
	TaskID        uuid.UUID `json:"task_id"`
	TaskName      string    `json:"task_name"`
	SkillScore    float64   `json:"skill_score"`
	DistanceKm    float64   `json:"distance_km"`
	CombinedScore float64   `json:"combined_score"`
	MatchedSkills []string  `json:"matched_skills"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	LocationName  *string   `json:"location_name"`
}

type RefreshResponse struct {
	Records int64 `json:"records"`
}

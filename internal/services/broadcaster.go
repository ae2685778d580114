package services

import "coinflip-backend/internal/models"

type Broadcaster interface {
	BroadcastGameCreated(event *models.GameCreatedEvent)
	BroadcastGamePlayed(event *models.GamePlayedEvent)
}

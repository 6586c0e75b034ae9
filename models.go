package main

import (
	"context"

	"github.com/muhammadolammi/thumbworker/internal/config"
	"github.com/muhammadolammi/thumbworker/internal/database"
	"github.com/muhammadolammi/thumbworker/internal/thumbnail"
	"github.com/streadway/amqp"
)

// EventHandler is satisfied by *thumbnail.Generator.
type EventHandler interface {
	Handle(ctx context.Context, ev thumbnail.UploadEvent) (thumbnail.Result, error)
}

// ProfileReader is satisfied by *database.Queries.
type ProfileReader interface {
	GetProfileRecord(ctx context.Context, key string) (database.ProfileRecord, error)
}

type WorkerConfig struct {
	DB         ProfileReader
	Generator  EventHandler
	RabbitConn *amqp.Connection
	RabbitMQ   config.RabbitMQConfig
}

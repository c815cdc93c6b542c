package config

import (
	"context"
	"database/sql"
	"io"
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/minio/minio-go/v7"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Bootstrap struct {
	Router         *chi.Mux
	Postgres       *sql.DB
	MongoDB        *mongo.Client
	Redis          *redis.Client
	RabbitMQ       *amqp091.Connection
	Minio          *minio.Client
	Logger         *zap.Logger
	InternalConfig *InternalConfig
	DriverConfig   *DriverConfig
	// SweeperStop if set is called first during Shutdown
	SweeperStop func()
	// PaymentShutdown drains in-flight settlements before the drivers close
	PaymentShutdown func(ctx context.Context) error
	Publisher       io.Closer
}

func (b *Bootstrap) Shutdown(ctx context.Context) error {
	if b.SweeperStop != nil {
		b.SweeperStop()
		log.Println("Successfully stopped payment sweeper")
	}

	if b.PaymentShutdown != nil {
		if err := b.PaymentShutdown(ctx); err != nil {
			log.Printf("Payment workflows did not drain: %v", err)
		} else {
			log.Println("Successfully drained payment workflows")
		}
	}

	if b.Publisher != nil {
		if err := b.Publisher.Close(); err != nil {
			return err
		}
		log.Println("Successfully closing settlement publisher")
	}

	err := b.Redis.Close()
	if err != nil {
		return err
	}
	log.Println("Successfully closing Redis")

	err = b.RabbitMQ.Close()
	if err != nil {
		return err
	}
	log.Println("Successfully closing RabbitMQ")

	err = b.MongoDB.Disconnect(ctx)
	if err != nil {
		return err
	}
	log.Println("Successfully closing MongoDB")

	err = b.Postgres.Close()
	if err != nil {
		return err
	}
	log.Println("Successfully closing Postgres")

	_ = b.Logger.Sync()
	log.Println("Successfully closing Logger")

	return nil
}

package messaging

import (
	"log"
	"maternity-service/internal/app/config"
	"strconv"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const settlementHeartbeat = 10 * time.Second

// NewRabbitMQ dials the broker that carries settlement events. The queue
// itself is declared by the settlement publisher on first use.
func NewRabbitMQ(driverConfig *config.DriverConfig, settlementQueue string) *amqp091.Connection {
	port, err := strconv.Atoi(driverConfig.RabbitMQ.Port)
	if err != nil {
		log.Fatalf("Invalid RabbitMQ port %q for settlement queue %s: %v", driverConfig.RabbitMQ.Port, settlementQueue, err)
	}
	uri := amqp091.URI{
		Scheme:   "amqp",
		Host:     driverConfig.RabbitMQ.Host,
		Port:     port,
		Username: driverConfig.RabbitMQ.Username,
		Password: driverConfig.RabbitMQ.Password,
		Vhost:    "/",
	}

	conn, err := amqp091.DialConfig(uri.String(), amqp091.Config{
		Heartbeat:  settlementHeartbeat,
		Properties: amqp091.Table{"connection_name": "maternity-service/" + settlementQueue},
	})
	if err != nil {
		log.Fatalf("Cannot reach RabbitMQ at %s:%d for settlement queue %s: %v", uri.Host, uri.Port, settlementQueue, err)
	}
	log.Printf("RabbitMQ ready for settlement queue %s", settlementQueue)
	return conn
}

package mq

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// Producer 把回合结果发布到队列
type Producer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	mu        sync.Mutex // amqp.Channel 不能并发 Publish
}

func NewProducer(url, queueName string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mq connect: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mq channel: %w", err)
	}

	// 声明队列
	_, err = channel.QueueDeclare(
		queueName,
		true, false, false, false, nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mq queue declare: %w", err)
	}

	return &Producer{conn: conn, channel: channel, queueName: queueName}, nil
}

// Publish marshals v as JSON and sends it as a persistent message.
func (p *Producer) Publish(v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		"",
		p.queueName,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Producer) Close() error {
	p.channel.Close()
	return p.conn.Close()
}

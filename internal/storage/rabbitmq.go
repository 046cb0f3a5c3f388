package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"resume-structurer/internal/config"
	"resume-structurer/internal/logger"
)

// DeliveryHandler 处理一条消息；返回 false 时消息会被拒绝，requeue 决定是否重新入队
type DeliveryHandler func(ctx context.Context, body []byte) (ack bool, requeue bool)

// RabbitMQ 提供消息队列功能
type RabbitMQ struct {
	conn        *amqp.Connection
	channelPool sync.Pool
	mu          sync.Mutex
	declared    map[string]bool // 已声明的 exchange / queue / binding
	cfg         *config.RabbitMQConfig
	logger      *zerolog.Logger
}

// NewRabbitMQ 连接 RabbitMQ 并声明上传队列的拓扑
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:     conn,
		declared: make(map[string]bool),
		cfg:      cfg,
		logger:   logger.Component("rabbitmq"),
	}
	mq.channelPool.New = func() interface{} {
		ch, err := conn.Channel()
		if err != nil {
			mq.logger.Error().Err(err).Msg("创建RabbitMQ通道失败")
			return nil
		}
		return ch
	}

	if err := mq.SetupTopology(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	mq.logger.Info().Str("queue", cfg.UploadQueue).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	if v := r.channelPool.Get(); v != nil {
		if ch, ok := v.(*amqp.Channel); ok && !ch.IsClosed() {
			return ch, nil
		}
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道: %w", err)
	}
	return ch, nil
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// SetupTopology 声明 direct exchange、上传队列并绑定
func (r *RabbitMQ) SetupTopology() error {
	if err := r.EnsureExchange(r.cfg.ResumeExchange, amqp.ExchangeDirect); err != nil {
		return err
	}
	if err := r.EnsureQueue(r.cfg.UploadQueue); err != nil {
		return err
	}
	return r.BindQueue(r.cfg.UploadQueue, r.cfg.ResumeExchange, r.cfg.UploadedRoutingKey)
}

// EnsureExchange 确保持久化的exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	return r.declareOnce("exchange:"+exchangeName, func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(exchangeName, exchangeType, true, false, false, false, nil)
	})
}

// EnsureQueue 确保持久化队列存在
func (r *RabbitMQ) EnsureQueue(queueName string) error {
	if queueName == "" {
		return fmt.Errorf("队列名称不能为空")
	}
	return r.declareOnce("queue:"+queueName, func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
		return err
	})
}

// BindQueue 绑定队列到exchange
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	key := fmt.Sprintf("binding:%s:%s:%s", exchangeName, queueName, routingKey)
	return r.declareOnce(key, func(ch *amqp.Channel) error {
		return ch.QueueBind(queueName, routingKey, exchangeName, false, nil)
	})
}

func (r *RabbitMQ) declareOnce(key string, declare func(ch *amqp.Channel) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[key] {
		return nil
	}

	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)

	if err := declare(ch); err != nil {
		return fmt.Errorf("声明 %s 失败: %w", key, err)
	}
	r.declared[key] = true
	r.logger.Debug().Str("key", key).Msg("RabbitMQ拓扑已声明")
	return nil
}

// PublishJSON 以持久化消息发布 JSON
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)

	return ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	})
}

// PublishUpload 发布上传事件到配置的 exchange
func (r *RabbitMQ) PublishUpload(ctx context.Context, msg ResumeUploadMessage) error {
	return r.PublishJSON(ctx, r.cfg.ResumeExchange, r.cfg.UploadedRoutingKey, msg)
}

// DeliveryTimeout 单条消息的处理时限
const DeliveryTimeout = 2 * time.Minute

// DeliveryContext 处理消息使用的上下文：不随消费者停止而取消，但有独立的超时
func DeliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), DeliveryTimeout)
}

func (r *RabbitMQ) dispatch(ctx context.Context, d amqp.Delivery, handler DeliveryHandler) {
	hctx, cancel := DeliveryContext(ctx)
	defer cancel()

	ack, requeue := handler(hctx, d.Body)
	var err error
	if ack {
		err = d.Ack(false)
	} else {
		err = d.Nack(false, requeue)
	}
	if err != nil {
		r.logger.Error().Err(err).Bool("ack", ack).Bool("requeue", requeue).Msg("确认消息失败")
	}
}

// StartConsumer 启动 workers 个协程消费队列
//
// ctx 取消后协程不再取新消息，正在处理的消息会处理完并确认。返回的通道在所有协程退出后关闭。
func (r *RabbitMQ) StartConsumer(ctx context.Context, queueName string, prefetchCount, workers int, handler DeliveryHandler) (<-chan struct{}, error) {
	if workers <= 0 {
		workers = 1
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						r.logger.Warn().Int("worker", worker).Msg("RabbitMQ投递通道已关闭")
						return
					}
					if ctx.Err() != nil {
						// 已开始停止，未处理的消息放回队列
						if err := d.Nack(false, true); err != nil {
							r.logger.Error().Err(err).Msg("退回消息失败")
						}
						return
					}
					r.dispatch(ctx, d, handler)
				}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		_ = ch.Close()
		r.logger.Info().Str("queue", queueName).Msg("RabbitMQ消费者已停止")
		close(done)
	}()

	r.logger.Info().Str("queue", queueName).Int("prefetch", prefetchCount).Int("workers", workers).Msg("RabbitMQ消费者已启动")
	return done, nil
}

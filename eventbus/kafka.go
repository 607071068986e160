// Package eventbus publishes "airdrop contract discovered" events once
// SourceScanner confirms a contract, grounded on
// datasync/chaindatafetcher/kafka/{config.go,repository.go} and
// datasync/chaindatafetcher/event/kafka/kafka.go's KafkaBroker shape
// (SPEC_FULL.md §6.4 supplemented feature).
package eventbus

import (
	"encoding/json"

	"github.com/Shopify/sarama"
	uuid "github.com/hashicorp/go-uuid"

	"github.com/airdropindexer/evmscan/config"
	"github.com/airdropindexer/evmscan/log"
)

var logger = log.NewModuleLogger(log.EventBus)

// AirdropDiscovered is the event payload published when SourceScanner
// persists a new evm_airdrop_eligibility_contract row.
type AirdropDiscovered struct {
	EventID         string `json:"event_id"`
	ChainID         uint64 `json:"chain_id"`
	ContractAddress string `json:"contract_address"`
	TokenTicker     string `json:"token_ticker"`
}

// Publisher is the narrow interface scanner code depends on, letting tests
// substitute a fake without a real broker.
type Publisher interface {
	PublishAirdropDiscovered(event AirdropDiscovered) error
}

// NoopPublisher discards events; used when Kafka is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAirdropDiscovered(event AirdropDiscovered) error { return nil }

// KafkaPublisher publishes to a single topic via sarama, mirroring
// kafka/repository.go's HandleChainEvent → broker.Publish(topic, data)
// shape. Built once at startup by locator.New.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects to cfg.Brokers and returns a publisher for
// cfg.Topic.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{producer: producer, topic: cfg.Topic}, nil
}

// PublishAirdropDiscovered marshals event and sends it to the configured
// topic, stamping a fresh correlation id per message.
func (p *KafkaPublisher) PublishAirdropDiscovered(event AirdropDiscovered) error {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return err
	}
	event.EventID = id

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ContractAddress),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logger.Error("failed to publish airdrop discovered event", "err", err)
		return err
	}
	logger.Info("published airdrop discovered event", "partition", partition, "offset", offset, "contract", event.ContractAddress)
	return nil
}

// Close releases the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

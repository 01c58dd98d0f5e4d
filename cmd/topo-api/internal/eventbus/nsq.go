package eventbus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nsqio/go-nsq"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// nsqdRetryDelay represents the delay that is used for retries in blocking calls.
const nsqdRetryDelay = 3 * time.Second

// Publisher publishes messages to the event bus.
type Publisher interface {
	Publish(topic string, data any) error
	CreateTopic(topic string) error
	Stop()
}

// PublisherProvider creates the concrete publisher, injectable for tests.
type PublisherProvider func(log *slog.Logger, tcpAddress, httpAddress string) (Publisher, error)

// NSQClient is a type to request NSQ related tasks such as creation of topics.
type NSQClient struct {
	log               *slog.Logger
	tcpAddress        string
	httpAddress       string
	publisherProvider PublisherProvider
	Publisher         Publisher
}

// NewNSQ creates a new NSQClient.
func NewNSQ(log *slog.Logger, tcpAddress, httpAddress string, publisherProvider PublisherProvider) NSQClient {
	return NSQClient{
		log:               log,
		tcpAddress:        tcpAddress,
		httpAddress:       httpAddress,
		publisherProvider: publisherProvider,
	}
}

// WaitForPublisher blocks until the provider is able to provide a non nil publisher.
func (n *NSQClient) WaitForPublisher() {
	for {
		publisher, err := n.publisherProvider(n.log, n.tcpAddress, n.httpAddress)
		if err != nil {
			n.log.Error("cannot create nsq publisher", "error", err)
			n.delay()
			continue
		}
		n.log.Info("nsq connected", "nsqd", n.tcpAddress)
		n.Publisher = publisher
		break
	}
}

// WaitForTopicsCreated blocks until all topics this service produces exist.
func (n *NSQClient) WaitForTopicsCreated() {
	for {
		if err := n.createTopics(topo.Topics); err != nil {
			n.log.Error("cannot create topics", "error", err)
			n.delay()
			continue
		}
		break
	}
}

// CreateTopic creates a topic with the given name.
func (n *NSQClient) CreateTopic(name string) error {
	if err := n.Publisher.CreateTopic(name); err != nil {
		n.log.Error("cannot create topic", "topic", name)
		return err
	}
	return nil
}

func (n *NSQClient) createTopics(topics []topo.NSQTopic) error {
	for _, topic := range topics {
		if err := n.CreateTopic(string(topic)); err != nil {
			return err
		}
	}
	return nil
}

func (n *NSQClient) delay() {
	time.Sleep(nsqdRetryDelay)
}

// NewPublisher creates a nsq-backed publisher talking to a single nsqd.
func NewPublisher(log *slog.Logger, tcpAddress, httpAddress string) (Publisher, error) {
	cfg := nsq.NewConfig()
	producer, err := nsq.NewProducer(tcpAddress, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot create producer with nsqd %q: %w", tcpAddress, err)
	}
	producer.SetLogger(&nsqLogger{log: log}, nsq.LogLevelWarning)
	return &nsqPublisher{
		producer:    producer,
		httpAddress: httpAddress,
	}, nil
}

type nsqPublisher struct {
	producer    *nsq.Producer
	httpAddress string
}

func (p *nsqPublisher) Publish(topic string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot marshal data to json: %w", err)
	}
	return p.producer.Publish(topic, b)
}

// CreateTopic creates the topic via the http api of nsqd. Publishing
// would create it as well but only on first use, consumers subscribing
// earlier would miss it.
func (p *nsqPublisher) CreateTopic(topic string) error {
	u := fmt.Sprintf("http://%s/topic/create?topic=%s", p.httpAddress, url.QueryEscape(topic))
	resp, err := http.Post(u, "", nil)
	if err != nil {
		return fmt.Errorf("cannot create topic %q: %w", topic, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot create topic %q: nsqd returned %s", topic, resp.Status)
	}
	return nil
}

func (p *nsqPublisher) Stop() {
	p.producer.Stop()
}

// nsqLogger bridges the go-nsq logging interface to slog.
type nsqLogger struct {
	log *slog.Logger
}

func (l *nsqLogger) Output(_ int, s string) error {
	l.log.Debug(s)
	return nil
}

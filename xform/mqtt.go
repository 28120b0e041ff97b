package xform

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ResultHandler is called after a request received over MQTT has been answered
type ResultHandler func(resp *TransformResponse)

// TransformService answers transform requests arriving on an MQTT topic and
// publishes results to <prefix>/result/<id>.
type TransformService struct {
	client        mqtt.Client
	config        *Config
	settings      MQTTConfig
	resultHandler ResultHandler
	isConnected   bool
	mu            sync.RWMutex
}

// NewTransformService builds an MQTT client from the effective settings and
// starts connecting in the background. It returns nil when no broker is configured.
func NewTransformService(config *Config) (*TransformService, error) {
	settings := EffectiveMQTT(config)
	if settings.Broker == "" {
		log.Println("[MQTT] disabled: MQTT_BROKER not set")
		return nil, nil
	}

	s := &TransformService{
		config:   config,
		settings: settings,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(settings.Broker)
	opts.SetClientID(settings.ClientID)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
		opts.SetPassword(settings.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // Preserve subscriptions on reconnect
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(s.onConnectionLost)
	opts.SetReconnectingHandler(s.onReconnecting)

	s.client = mqtt.NewClient(opts)

	go s.connectWithRetry()

	return s, nil
}

// NewTransformServiceWithClient wraps an existing client, typically a mock in tests.
// Subscription happens on Start.
func NewTransformServiceWithClient(client mqtt.Client, config *Config) *TransformService {
	return &TransformService{
		client:   client,
		config:   config,
		settings: EffectiveMQTT(config),
	}
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (s *TransformService) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] connecting to broker...")

		token := s.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] connected to broker")
				s.setConnected(true)
				return
			}
			log.Printf("[MQTT] connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] connection timeout")
		}

		log.Printf("[MQTT] retrying connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (s *TransformService) onConnect(client mqtt.Client) {
	log.Println("[MQTT] connected, subscribing to request topic...")
	s.setConnected(true)
	if err := s.subscribe(client); err != nil {
		log.Printf("[MQTT] %v", err)
	}
}

func (s *TransformService) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] connection interrupted (%v), auto-reconnect will retry", err)
	s.setConnected(false)
}

func (s *TransformService) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] reconnecting...")
}

func (s *TransformService) subscribe(client mqtt.Client) error {
	topic := s.settings.RequestTopic
	token := client.Subscribe(topic, 0, s.handleRequest)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, token.Error())
	}
	log.Printf("[MQTT] subscribed to %s", topic)
	return nil
}

// Start subscribes to the request topic on an already connected client
func (s *TransformService) Start() error {
	if s.client == nil || !s.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}
	s.setConnected(true)
	return s.subscribe(s.client)
}

// SetResultHandler registers a callback invoked after each published result
func (s *TransformService) SetResultHandler(handler ResultHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultHandler = handler
}

func (s *TransformService) getResultHandler() ResultHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultHandler
}

// ResultTopic returns the topic a response for id is published to.
// Empty or invalid ids go to the anonymous topic.
func (s *TransformService) ResultTopic(id string) string {
	if id == "" || ValidateRequestID(id) != nil {
		id = "anonymous"
	}
	return fmt.Sprintf("%s/result/%s", s.settings.PublishPrefix, id)
}

func (s *TransformService) handleRequest(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	log.Printf("[MQTT] received request (topic: %s, size: %d bytes)", msg.Topic(), len(payload))

	var resp *TransformResponse
	req, err := DecodeRequest(payload)
	if err != nil {
		log.Printf("[MQTT] %v", err)
		resp = ErrorResponse("", err)
	} else if resp, err = ProcessRequest(s.config, req); err != nil {
		log.Printf("[MQTT] request %s failed: %v", req.ID, err)
		resp = ErrorResponse(req.ID, err)
	}

	if err := s.Publish(resp); err != nil {
		log.Printf("[MQTT] %v", err)
		return
	}

	if handler := s.getResultHandler(); handler != nil {
		handler(resp)
	}
}

// Publish sends resp to its result topic
func (s *TransformService) Publish(resp *TransformResponse) error {
	if s.client == nil || !s.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	topic := s.ResultTopic(resp.ID)
	token := s.client.Publish(topic, 0, false, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("[MQTT] published result for %q to %s (%d points)", resp.ID, topic, len(resp.Points))
	return nil
}

// IsConnected returns true if the MQTT client is connected
func (s *TransformService) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

func (s *TransformService) setConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (s *TransformService) Disconnect() {
	if s.client != nil && s.client.IsConnected() {
		log.Println("[MQTT] disconnecting from broker...")
		s.client.Disconnect(250)
		s.setConnected(false)
	}
}

// Package mqtt carries queue packets over MQTT topics.
package mqtt

import (
	"container/list"
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// SubQoS is the QoS of subscriptions. Packets are delivered at most
// once: a redelivered size frame would desync two-phase framing.
const SubQoS byte = 0

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// Client wraps MQTT client with topic prefix and local subscription
// bookkeeping so subscriptions survive reconnects.
type Client struct {
	Client      paho.Client
	TopicPrefix string

	subsLock     sync.RWMutex
	subs         map[string]*list.List
	wildcardSubs map[string]*list.List
}

// Subscription is a subscribed topic.
type Subscription struct {
	Token paho.Token

	client   *Client
	elm      *list.Element
	topic    string
	wildcard bool
	handler  Handler
}

// MatchTopic matches topic with pattern.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	for i, token := range tokensP {
		if token == "#" && i+1 == len(tokensP) {
			return true
		}
		if i >= len(tokensT) {
			return false
		}
		if token != "+" && token != tokensT[i] {
			return false
		}
	}
	return len(tokensP) == len(tokensT)
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The path of the URL becomes the topic prefix, and the query
// parameter client-id sets the client id.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}

	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}

	return opts, topicPrefix, nil
}

// NewClient creates Client.
func NewClient(options *paho.ClientOptions, topicPrefix string) *Client {
	c := &Client{TopicPrefix: topicPrefix}
	options.SetOnConnectHandler(c.onConnect)
	options.SetConnectionLostHandler(c.onConnectionLost)
	c.Client = paho.NewClient(options)
	return c
}

// NewClientFromURL creates Client from URL.
func NewClientFromURL(brokerURL string) (*Client, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewClient(opts, topicPrefix), nil
}

// Connect connects the client and waits for the result.
func (c *Client) Connect() error {
	token := c.Client.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (c *Client) Close() error {
	c.Client.Disconnect(0)
	return nil
}

// Sub subscribes a topic.
func (c *Client) Sub(topic string, handler Handler) *Subscription {
	wildcard := strings.Contains(topic, "+") || strings.HasSuffix(topic, "#")
	var newSub bool
	c.subsLock.Lock()
	if c.subs == nil {
		c.subs = make(map[string]*list.List)
		c.wildcardSubs = make(map[string]*list.List)
	}
	subs := c.subs
	if wildcard {
		subs = c.wildcardSubs
	}
	lst := subs[topic]
	if lst == nil {
		lst = list.New()
		subs[topic] = lst
		newSub = true
	}
	sub := &Subscription{
		client:   c,
		topic:    topic,
		wildcard: wildcard,
		handler:  handler,
	}
	sub.elm = lst.PushBack(sub)
	c.subsLock.Unlock()

	if newSub {
		glog.V(2).Infof("SUB %q", c.TopicPrefix+topic)
		sub.Token = c.Client.Subscribe(c.TopicPrefix+topic, SubQoS, c.dispatch)
	} else {
		sub.Token = &paho.DummyToken{}
	}
	return sub
}

// Pub publishes to a topic with QoS 1 so queued packets are not
// silently dropped by the broker.
func (c *Client) Pub(topic string, payload []byte) paho.Token {
	return c.Client.Publish(c.TopicPrefix+topic, 1, false, payload)
}

func (c *Client) resubscribe() paho.Token {
	filters := make(map[string]byte)
	c.subsLock.RLock()
	for topic := range c.subs {
		filters[c.TopicPrefix+topic] = SubQoS
	}
	for topic := range c.wildcardSubs {
		filters[c.TopicPrefix+topic] = SubQoS
	}
	c.subsLock.RUnlock()
	if len(filters) > 0 {
		for key := range filters {
			glog.V(2).Infof("SUB %q", key)
		}
		return c.Client.SubscribeMultiple(filters, c.dispatch)
	}
	return &paho.DummyToken{}
}

func (c *Client) onConnect(paho.Client) {
	glog.Info("mqtt connected")
	c.resubscribe()
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
}

func (c *Client) handlers(topic string) (handlers []Handler) {
	c.subsLock.RLock()
	defer c.subsLock.RUnlock()
	if lst := c.subs[topic]; lst != nil {
		for elm := lst.Front(); elm != nil; elm = elm.Next() {
			handlers = append(handlers, elm.Value.(*Subscription).handler)
		}
	}
	for key, lst := range c.wildcardSubs {
		if MatchTopic(topic, key) {
			for elm := lst.Front(); elm != nil; elm = elm.Next() {
				handlers = append(handlers, elm.Value.(*Subscription).handler)
			}
		}
	}
	return
}

func (c *Client) dispatch(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, c.TopicPrefix) {
		return
	}
	glog.V(3).Infof("RCV %q", topic)
	topic = topic[len(c.TopicPrefix):]
	payload := msg.Payload()
	for _, h := range c.handlers(topic) {
		h(topic, payload)
	}
}

// Close unsubscribes a handler.
func (s *Subscription) Close() error {
	c := s.client
	var unsub bool
	c.subsLock.Lock()
	subs := c.subs
	if s.wildcard {
		subs = c.wildcardSubs
	}
	if lst := subs[s.topic]; lst != nil {
		lst.Remove(s.elm)
		if unsub = lst.Len() == 0; unsub {
			delete(subs, s.topic)
		}
	}
	c.subsLock.Unlock()
	if unsub {
		glog.V(2).Infof("UNSUB %q", s.topic)
		token := c.Client.Unsubscribe(c.TopicPrefix + s.topic)
		token.Wait()
		return token.Error()
	}
	return nil
}

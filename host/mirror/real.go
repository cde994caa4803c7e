package mirror

import (
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// appID keys the hashed machine id so it is not the raw system id.
const appID = "launchprobe"

// ClientID returns a stable MQTT client id for this host.
func ClientID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		host, _ := os.Hostname()
		glog.Warningf("mirror: machine id unavailable (%v), using hostname", err)
		return "probed-" + host
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return "probed-" + id
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	prefix string
}

// NewRealPublisher creates a publisher connected to the given broker. The
// broker is told to mark the probe offline if the connection drops.
func NewRealPublisher(broker, prefix string) (*RealPublisher, error) {
	if prefix == "" {
		prefix = DefaultTopic
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID()).
		SetWill(StatusTopic(prefix), "offline", 1, true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			glog.Warningf("mirror: connection lost: %v", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{client: client, prefix: prefix}, nil
}

// Publish sends payload at QoS 0.
func (p *RealPublisher) Publish(topic string, payload []byte, retained bool) error {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close marks the probe offline and disconnects from the broker.
func (p *RealPublisher) Close() error {
	token := p.client.Publish(StatusTopic(p.prefix), 1, true, []byte("offline"))
	token.WaitTimeout(time.Second)
	p.client.Disconnect(1000)
	return nil
}

package sink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/okieraised/fatigue-agent/internal/config"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const publishWait = 2 * time.Second

// MQTTSink publishes alert events and signal status to the broker. Alerts go
// out at QoS 1 because downstream fleet systems act on them; metric samples
// are not forwarded at all, the websocket hub covers live viewing.
type MQTTSink struct {
	client      mqtt.Client
	alertTopic  string
	statusTopic string
}

func NewMQTTSink(client mqtt.Client) *MQTTSink {
	alertTopic := viper.GetString(config.MqttAlertTopic)
	if alertTopic == "" {
		alertTopic = constants.MqttDefaultAlertTopic
	}
	statusTopic := viper.GetString(config.MqttStatusTopic)
	if statusTopic == "" {
		statusTopic = constants.MqttDefaultStatusTopic
	}
	return &MQTTSink{
		client:      client,
		alertTopic:  alertTopic,
		statusTopic: statusTopic,
	}
}

func (s *MQTTSink) PublishAlert(ev *alert.Event) {
	s.publish(s.alertTopic, 1, ev)
}

func (s *MQTTSink) PublishSample(_ metrics.Sample) {}

func (s *MQTTSink) PublishStatus(st pipeline.Status) {
	s.publish(s.statusTopic, 0, st)
}

func (s *MQTTSink) publish(topic string, qos byte, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Default().Error(errors.Wrap(err, "failed to marshal mqtt payload").Error())
		return
	}

	tok := s.client.Publish(topic, qos, false, body)
	go func() {
		if !tok.WaitTimeout(publishWait) {
			log.Default().Warn(fmt.Sprintf("MQTT publish to [%s] timed out after %s", topic, publishWait))
			return
		}
		if pErr := tok.Error(); pErr != nil {
			log.Default().Error(errors.Wrapf(pErr, "failed to publish to [%s]", topic).Error())
		}
	}()
}

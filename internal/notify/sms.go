package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/agebe/pingalert/internal/logging"
	"github.com/agebe/pingalert/internal/model"
)

// DefaultSMSEndpoint es el endpoint de envio de Notifyre.
const DefaultSMSEndpoint = "https://api.notifyre.com/sms/send"

// maxSMSLength respeta el largo maximo de un SMS simple.
const maxSMSLength = 159

type smsRecipient struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type smsRequest struct {
	Body               string         `json:"Body"`
	Recipients         []smsRecipient `json:"Recipients"`
	From               string         `json:"From"`
	AddUnsubscribeLink bool           `json:"AddUnsubscribeLink"`
}

// SMSSink envia alertas y recuperaciones como SMS a un grupo de Notifyre.
type SMSSink struct {
	Endpoint     string
	Token        string
	Prefix       string
	DefaultGroup string
	Client       *http.Client
	logger       logging.Logger
}

// NewSMSSink crea el canal SMS. Solo debe construirse si hay token.
func NewSMSSink(token, prefix, defaultGroup string, logger logging.Logger) *SMSSink {
	return &SMSSink{
		Endpoint:     DefaultSMSEndpoint,
		Token:        token,
		Prefix:       prefix,
		DefaultGroup: defaultGroup,
		Client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logging.OrNop(logger),
	}
}

// Name identifica el canal en los logs.
func (s *SMSSink) Name() string { return "sms" }

// Send solo reacciona a escaladas y recuperaciones de alertas.
func (s *SMSSink) Send(ctx context.Context, ev model.Event) error {
	var msg string
	switch ev.Kind {
	case model.EventEscalation:
		msg = fmt.Sprintf("service '%s' is down", ev.Target.DisplayName())
	case model.EventRecoveryAlert:
		msg = fmt.Sprintf("service '%s' is back to normal", ev.Target.DisplayName())
	default:
		return nil
	}
	text := truncate(s.Prefix+msg, maxSMSLength)

	group := ev.Target.EffectiveGroup(s.DefaultGroup)
	if group == "" {
		s.logger.Debugf("no se envia SMS '%s': '%s' no tiene grupo", text, ev.Target.DisplayURL)
		return nil
	}

	s.logger.Infof("enviando SMS '%s' al grupo '%s'", text, group)
	return s.post(ctx, text, group)
}

func (s *SMSSink) post(ctx context.Context, text, group string) error {
	payload := smsRequest{
		Body:       text,
		Recipients: []smsRecipient{{Type: "group", Value: group}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("no se pudo serializar SMS: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("no se pudo crear request SMS: %w", err)
	}
	req.Header.Set("x-api-token", s.Token)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("envio de SMS fallo: %w", err)
	}
	defer resp.Body.Close()

	s.logger.Infof("notifyre respondio status '%d'", resp.StatusCode)
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const defaultSecretTimeout = 10 * time.Second

// CheckoutSecret is the JSON document holding the checkout credentials.
// Keys mirror the environment variables they override; empty values are
// left to the environment.
type CheckoutSecret struct {
	TelegramBotToken string `json:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `json:"TELEGRAM_CHAT_ID"`
	SMTPHost         string `json:"SMTP_HOST"`
	SMTPPort         string `json:"SMTP_PORT"`
	SMTPUser         string `json:"SMTP_USER"`
	SMTPPass         string `json:"SMTP_PASS"`
	PostgresHost     string `json:"POSTGRES_HOST"`
	PostgresUser     string `json:"POSTGRES_USER"`
	PostgresPassword string `json:"POSTGRES_PASSWORD"`
	PostgresDB       string `json:"POSTGRES_DB"`
}

type secretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient loads the checkout credentials at startup.
type SecretsClient struct {
	api     secretValueAPI
	timeout time.Duration
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{api: secretsmanager.NewFromConfig(cfg), timeout: defaultSecretTimeout}
}

// CheckoutSecret fetches and decodes the named secret. The lookup is bounded
// by the client timeout so a blocked endpoint cannot hang startup.
func (s *SecretsClient) CheckoutSecret(ctx context.Context, name string) (*CheckoutSecret, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", name)
	}

	var secret CheckoutSecret
	if err := json.Unmarshal([]byte(*out.SecretString), &secret); err != nil {
		return nil, fmt.Errorf("secret %s is not a checkout credentials object: %w", name, err)
	}
	return &secret, nil
}

package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads runtime secrets from a HashiCorp Vault KV v2
// mount so credentials stay out of config files.
type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

// GetDatabaseURL returns the Postgres connection string stored at
// secret/data/database.
func (sm *SecretManager) GetDatabaseURL() (string, error) {
	return sm.readString("secret/data/database", "connection_string")
}

// GetSMTPPassword returns the SMTP relay password stored at
// secret/data/email.
func (sm *SecretManager) GetSMTPPassword() (string, error) {
	return sm.readString("secret/data/email", "smtp_password")
}

// GetSendGridAPIKey returns the SendGrid API key stored at
// secret/data/email.
func (sm *SecretManager) GetSendGridAPIKey() (string, error) {
	return sm.readString("secret/data/email", "sendgrid_api_key")
}

func (sm *SecretManager) readString(path, field string) (string, error) {
	secret, err := sm.client.Logical().Read(path)
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: no secret at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: unexpected secret shape at %s", path)
	}

	value, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("vault: field %s missing at %s", field, path)
	}
	return value, nil
}

// Package session holds the CLI state kept in ~/.inkwell/config.yaml: where
// the server is and who is logged in.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"inkwell/internal/client"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

const (
	DefaultServer = "http://localhost:8080"
	configDirName = ".inkwell"
)

// Init points viper at the config file and sets the defaults. An explicit
// path wins over ~/.inkwell/config.yaml. A missing file is not an error.
func Init(path string) error {
	viper.SetDefault("server.url", DefaultServer)
	policy := thread.DefaultPolicy()
	viper.SetDefault("thread.initial_replies", policy.InitialReplies)
	viper.SetDefault("thread.deep_replies", policy.DeepReplies)
	viper.SetDefault("thread.deep_level", policy.DeepLevel)
	viper.SetDefault("thread.max_depth", policy.MaxDepth)
	viper.SetDefault("thread.page_size", policy.PageSize)

	viper.SetEnvPrefix("INKWELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Dir is ~/.inkwell
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// Client returns an API client for the configured server, carrying the saved
// token if there is one
func Client() *client.Client {
	c := client.New(viper.GetString("server.url"))
	if token := viper.GetString("user.token"); token != "" {
		c.SetToken(token)
	}
	return c
}

// RequireLogin returns a client, or an error telling the user to log in
func RequireLogin() (*client.Client, error) {
	if viper.GetString("user.token") == "" {
		return nil, fmt.Errorf("not logged in. Please run: inkwell auth login")
	}
	return Client(), nil
}

// Policy is the disclosure policy used when rendering threads locally
func Policy() thread.Policy {
	return thread.Policy{
		InitialReplies: viper.GetInt("thread.initial_replies"),
		DeepReplies:    viper.GetInt("thread.deep_replies"),
		DeepLevel:      viper.GetInt("thread.deep_level"),
		MaxDepth:       viper.GetInt("thread.max_depth"),
		PageSize:       viper.GetInt("thread.page_size"),
	}.Validate()
}

// SaveLogin stores the token of a successful login and returns the file it
// was written to
func SaveLogin(resp *models.LoginResponse) (string, error) {
	viper.Set("user.username", resp.User.Username)
	viper.Set("user.id", resp.User.ID)
	viper.Set("user.token", resp.Token)
	return write()
}

// Logout forgets the saved token
func Logout() (string, error) {
	viper.Set("user.token", "")
	return write()
}

func write() (string, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}

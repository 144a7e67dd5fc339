package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cuadrilla/internal/api"
	"cuadrilla/internal/config"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != "" {
			cfg.Client.ServerURL = strings.TrimSpace(*c.serverFlag)
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) client() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.Client.ServerURL,
		api.WithToken(cfg.Paths.APIToken),
		api.WithTimeout(cfg.RequestTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("configure api client: %w", err)
	}
	return client, nil
}

// siteID returns flagValue when set, otherwise client.site_id from config.
func (c *commandContext) siteID(flagValue int64) (int64, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return 0, err
	}
	if cfg.Client.SiteID > 0 {
		return cfg.Client.SiteID, nil
	}
	return 0, errors.New("no site selected; pass --site or set client.site_id")
}

// wrapAPIError turns connection failures into an actionable message.
func (c *commandContext) wrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if api.IsAPIUnavailable(err) {
		server := ""
		if c.config != nil {
			server = c.config.Client.ServerURL
		}
		return fmt.Errorf("connect to attendance server %s: %w; start it with `cuadrilla serve`", server, err)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads the handler configuration of an application from
// HCL files.
//
//	variables {
//	  root = env.HOME
//	}
//
//	allowed_kinds = "all"
//
//	local {
//	  base_directory = "${var.root}/data"
//	}
//
//	http {
//	  timeout         = "30s"
//	  retry_attempts  = 3
//	  retry_delay     = "500ms"
//	  verify_checksum = true
//	  checksum_hash   = "sha256"
//	  checksum_param  = "sha256"
//	}
//
//	ipfs {
//	  checksum_hash    = "keccak256"
//	  ordered_gateways = true
//
//	  gateway "ipfs.io" {}
//	  gateway "dweb.link" {
//	    resolution = "subdomain"
//	  }
//	}
//
// Environment variables are available as attributes of the "env" object.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	logging "github.com/ipfs/go-log/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/chronicleprotocol/unifile/fsutil"
	"github.com/chronicleprotocol/unifile/ufile"
	"github.com/chronicleprotocol/unifile/uri"
)

var log = logging.Logger("unifile/config")

type Config struct {
	// AllowedKinds restricts the kinds URIs may be resolved as, in the
	// format accepted by uri.ParseKind. Empty means all kinds.
	AllowedKinds string `hcl:"allowed_kinds,optional"`

	Local *LocalConfig `hcl:"local,block"`
	HTTP  *HTTPConfig  `hcl:"http,block"`
	IPFS  *IPFSConfig  `hcl:"ipfs,block"`
}

type LocalConfig struct {
	// BaseDirectory is the default base directory of relative URIs.
	BaseDirectory string `hcl:"base_directory,optional"`
}

type HTTPConfig struct {
	Timeout        string `hcl:"timeout,optional"`
	RetryAttempts  *int   `hcl:"retry_attempts,optional"`
	RetryDelay     string `hcl:"retry_delay,optional"`
	VerifyChecksum bool   `hcl:"verify_checksum,optional"`

	// ChecksumHash is the checksum hash, as accepted by fsutil.ChecksumHash.
	ChecksumHash string `hcl:"checksum_hash,optional"`

	// ChecksumParam is the name of the query parameter with the checksum,
	// "checksum" by default.
	ChecksumParam string `hcl:"checksum_param,optional"`
}

type IPFSConfig struct {
	// ChecksumHash is the hash of the "checksum" query parameter.
	ChecksumHash string `hcl:"checksum_hash,optional"`

	// OrderedGateways makes gateways be tried in the configured order
	// instead of a random one.
	OrderedGateways bool `hcl:"ordered_gateways,optional"`

	Gateways []GatewayConfig `hcl:"gateway,block"`
}

type GatewayConfig struct {
	Host string `hcl:"host,label"`

	// Scheme is the URL scheme of the gateway, "https" by default.
	Scheme string `hcl:"scheme,optional"`

	// Resolution is either "path" (the default) or "subdomain".
	Resolution string `hcl:"resolution,optional"`
}

// Load reads the configuration from a file. Files with the ".json"
// extension are parsed as HCL JSON.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errConfigFn(err)
	}
	return Parse(src, path)
}

// Parse parses the configuration from src. The file name is used in error
// messages and to choose between HCL and HCL JSON syntax.
func Parse(src []byte, filename string) (*Config, error) {
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	parser := hclparse.NewParser()
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		file, diags = parser.ParseJSON(src, filename)
	} else {
		file, diags = parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	ctx := evalContext()
	body, diags := variables(ctx, file.Body)
	if diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	cfg := &Config{}
	if diags := gohcl.DecodeBody(body, ctx, cfg); diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that the HCL schema cannot check.
func (c *Config) Validate() error {
	if _, err := c.Kinds(); err != nil {
		return err
	}
	if c.HTTP != nil {
		if _, err := parseDuration("http.timeout", c.HTTP.Timeout); err != nil {
			return err
		}
		if _, err := parseDuration("http.retry_delay", c.HTTP.RetryDelay); err != nil {
			return err
		}
		if c.HTTP.RetryAttempts != nil && *c.HTTP.RetryAttempts < 1 {
			return errConfigFn(fmt.Errorf("http.retry_attempts must be at least 1, got %d", *c.HTTP.RetryAttempts))
		}
		if _, err := fsutil.ChecksumHash(c.HTTP.ChecksumHash); err != nil {
			return errConfigFn(fmt.Errorf("http.checksum_hash: %w", err))
		}
	}
	if c.IPFS != nil {
		if _, err := fsutil.ChecksumHash(c.IPFS.ChecksumHash); err != nil {
			return errConfigFn(fmt.Errorf("ipfs.checksum_hash: %w", err))
		}
		for _, gw := range c.IPFS.Gateways {
			if _, err := fsutil.NewIPFSGateway(gw.Scheme, gw.Host, gw.Resolution); err != nil {
				return errConfigFn(err)
			}
		}
	}
	return nil
}

// Kinds returns the allowed kinds.
func (c *Config) Kinds() (uri.Kind, error) {
	if c.AllowedKinds == "" {
		return uri.All, nil
	}
	k, err := uri.ParseKind(c.AllowedKinds)
	if err != nil {
		return uri.None, errConfigFn(err)
	}
	return k, nil
}

// BaseDirectory returns the default base directory of relative URIs, or an
// empty string if none is configured.
func (c *Config) BaseDirectory() string {
	if c.Local == nil {
		return ""
	}
	return c.Local.BaseDirectory
}

// Provider creates a provider with a basic handler and an IPFS handler
// configured by c.
func (c *Config) Provider() (*ufile.Provider, error) {
	basic, err := c.basicOptions()
	if err != nil {
		return nil, err
	}
	ipfs, err := c.ipfsOptions()
	if err != nil {
		return nil, err
	}
	log.Debugw("Creating provider", "allowed_kinds", c.AllowedKinds, "base_directory", c.BaseDirectory())
	return ufile.NewProvider(
		ufile.WithHandler(ufile.BasicTag, ufile.NewBasicHandler(basic...)),
		ufile.WithHandler(ufile.IPFSTag, ufile.NewIPFSHandler(ipfs...)),
	), nil
}

func (c *Config) httpClient() (*http.Client, error) {
	if c.HTTP == nil || c.HTTP.Timeout == "" {
		return http.DefaultClient, nil
	}
	timeout, err := parseDuration("http.timeout", c.HTTP.Timeout)
	if err != nil {
		return nil, err
	}
	return &http.Client{Timeout: timeout}, nil
}

func (c *Config) basicOptions() ([]ufile.BasicOption, error) {
	client, err := c.httpClient()
	if err != nil {
		return nil, err
	}
	opts := []ufile.BasicOption{ufile.WithHTTPClient(client)}
	if c.HTTP == nil {
		return opts, nil
	}
	if c.HTTP.RetryAttempts != nil || c.HTTP.RetryDelay != "" {
		attempts := 3
		if c.HTTP.RetryAttempts != nil {
			attempts = *c.HTTP.RetryAttempts
		}
		delay, err := parseDuration("http.retry_delay", c.HTTP.RetryDelay)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ufile.WithHTTPRetry(attempts, delay))
	}
	if c.HTTP.VerifyChecksum {
		hash, err := fsutil.ChecksumHash(c.HTTP.ChecksumHash)
		if err != nil {
			return nil, errConfigFn(err)
		}
		checksum := []fsutil.ChecksumFSOption{fsutil.WithChecksumHash(hash)}
		if c.HTTP.ChecksumParam != "" {
			checksum = append(checksum, fsutil.WithChecksumParamName(c.HTTP.ChecksumParam))
		}
		opts = append(opts, ufile.WithChecksumVerification(checksum...))
	}
	return opts, nil
}

func (c *Config) ipfsOptions() ([]ufile.IPFSOption, error) {
	client, err := c.httpClient()
	if err != nil {
		return nil, err
	}
	opts := []fsutil.IPFSOption{fsutil.WithIPFSHTTPClient(client)}
	if c.IPFS == nil {
		return []ufile.IPFSOption{ufile.WithIPFSOptions(opts...)}, nil
	}
	hash, err := fsutil.ChecksumHash(c.IPFS.ChecksumHash)
	if err != nil {
		return nil, errConfigFn(err)
	}
	opts = append(opts, fsutil.WithIPFSChecksumHash(hash))
	if c.IPFS.OrderedGateways {
		opts = append(opts, fsutil.WithIPFSOrderedGateways())
	}
	if len(c.IPFS.Gateways) > 0 {
		gws := make([]*fsutil.IPFSGateway, 0, len(c.IPFS.Gateways))
		for _, gw := range c.IPFS.Gateways {
			g, err := fsutil.NewIPFSGateway(gw.Scheme, gw.Host, gw.Resolution)
			if err != nil {
				return nil, errConfigFn(err)
			}
			gws = append(gws, g)
		}
		opts = append(opts, fsutil.WithIPFSGateways(gws...))
	}
	return []ufile.IPFSOption{ufile.WithIPFSOptions(opts...)}, nil
}

func parseDuration(attr, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errConfigFn(fmt.Errorf("%s: %w", attr, err))
	}
	return d, nil
}

// evalContext returns the context available to expressions: environment
// variables under "env".
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}

func errConfigFn(err error) error {
	return fmt.Errorf("config: %w", err)
}

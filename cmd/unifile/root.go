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

package main

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"github.com/chronicleprotocol/unifile/config"
	"github.com/chronicleprotocol/unifile/ufile"
	"github.com/chronicleprotocol/unifile/uri"
)

type options struct {
	configPath string
	handler    string
	allowed    string
	baseDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "unifile",
		Short:        "Resolve and read local, HTTP and IPFS files",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.SetLogLevel("*", opts.logLevel)
		},
	}
	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to an HCL configuration file")
	f.StringVar(&opts.handler, "handler", ufile.BasicTag, "handler tag: basic or ipfs")
	f.StringVar(&opts.allowed, "allowed", "", `allowed uri kinds, e.g. "local" or "online-absolute|local-absolute" (default from config, else all)`)
	f.StringVar(&opts.baseDir, "base", "", "base directory of relative uris (default from config)")
	f.StringVar(&opts.logLevel, "log-level", "error", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newKindCmd(opts),
		newResolveCmd(opts),
		newParentCmd(opts),
		newStatCmd(opts),
		newCatCmd(opts),
	)
	return cmd
}

// session is the provider and resolution context of a single command.
type session struct {
	provider *ufile.Provider
	allowed  uri.Kind
	baseDir  string
	tag      string
}

func (o *options) session() (*session, error) {
	cfg := &config.Config{}
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	p, err := cfg.Provider()
	if err != nil {
		return nil, err
	}
	allowed, err := cfg.Kinds()
	if err != nil {
		return nil, err
	}
	if o.allowed != "" {
		if allowed, err = uri.ParseKind(o.allowed); err != nil {
			return nil, err
		}
	}
	baseDir := cfg.BaseDirectory()
	if o.baseDir != "" {
		baseDir = o.baseDir
	}
	return &session{provider: p, allowed: allowed, baseDir: baseDir, tag: o.handler}, nil
}

func (s *session) uri(arg string) (*uri.URI, error) {
	return s.provider.NewURI(s.tag, arg, s.allowed, s.baseDir)
}

func (s *session) file(arg string) (*ufile.File, error) {
	return s.provider.Open(s.tag, arg, s.allowed, s.baseDir)
}

func (s *session) readOptions() []ufile.ReadOption {
	return []ufile.ReadOption{ufile.WithAllowedKinds(s.allowed), ufile.UseCacheIfOnline()}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

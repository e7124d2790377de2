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
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newKindCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "kind <uri>...",
		Short: "Print the kinds a URI could be",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			h, err := s.provider.Handler(s.tag)
			if err != nil {
				return err
			}
			for _, arg := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", arg, h.Classify(arg))
			}
			return nil
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <uri>",
		Short: "Print the absolute form of a URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			u, err := s.uri(args[0])
			if err != nil {
				return err
			}
			abs, kind, err := u.Resolve(s.allowed, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", abs, kind)
			return nil
		},
	}
}

func newParentCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <uri>",
		Short: "Print the parent directory of a URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			u, err := s.uri(args[0])
			if err != nil {
				return err
			}
			p, ok, err := u.Parent(s.allowed, "")
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s has no parent directory", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Original(), p.Kind())
			return nil
		},
	}
}

func newStatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <uri>",
		Short: "Print whether a file exists, its name and its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			f, err := s.file(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			abs, _, err := f.URI().Resolve(s.allowed, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "uri:    %s\n", abs)
			ok, err := f.Exists(ctx, s.readOptions()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "exists: %t\n", ok)
			if !ok {
				return nil
			}
			if name, ok, err := f.FileName(ctx, s.readOptions()...); err != nil {
				return err
			} else if ok {
				fmt.Fprintf(out, "name:   %s\n", name)
			}
			size, err := f.Size(ctx, s.readOptions()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "size:   %s (%s bytes)\n", humanize.IBytes(uint64(size)), humanize.Comma(size))
			return nil
		},
	}
}

func newCatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <uri>",
		Short: "Write the content of a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			f, err := s.file(args[0])
			if err != nil {
				return err
			}
			r, _, err := f.ReadStream(commandContext(cmd), s.readOptions()...)
			if err != nil {
				return err
			}
			defer r.Close()
			_, err = io.Copy(cmd.OutOrStdout(), r)
			return err
		},
	}
}

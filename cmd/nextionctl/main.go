// go-nextion
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-nextion.
//
// go-nextion is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-nextion is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-nextion.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/go-nextion/pkg/cli"
	"github.com/ZaparooProject/go-nextion/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	if err := flags.Parse(flag.CommandLine, os.Args[1:]); err != nil {
		return err
	}

	if *flags.Version {
		_, _ = fmt.Printf("nextionctl v%s\n", cli.AppVersion)
		return nil
	}

	cfg, err := cli.Setup(
		afero.NewOsFs(), flags, config.BaseDefaults,
		[]io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}},
	)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = cli.Run(ctx, cli.DefaultEnv(os.Stdout), cfg, flags)
	if err != nil {
		log.Error().Err(err).Msg("nextionctl failed")
		return err //nolint:wrapcheck // already wrapped by cli
	}
	return nil
}

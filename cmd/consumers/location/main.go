/*
 * Copyright 2026 Edgewatch Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"log"

	"github.com/edgewatch/enrichd/pkg/config"
	"github.com/edgewatch/enrichd/pkg/consumers/location"
	"github.com/edgewatch/enrichd/pkg/lifecycle"
	"github.com/edgewatch/enrichd/pkg/logger"
)

func main() {
	configPath := flag.String("config", "/etc/enrichd/location.json", "Path to the location consumer config file")
	flag.Parse()

	ctx := context.Background()

	var cfg location.Config

	if err := config.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCfg := cfg.Logging
	if logCfg == nil {
		logCfg = logger.DefaultConfig()
	}

	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	svc, err := location.NewService(&cfg, logger.WithComponent("location-consumer"))
	if err != nil {
		log.Fatalf("Failed to initialize location consumer: %v", err)
	}

	opts := &lifecycle.ServerOptions{
		ListenAddr:  cfg.ListenAddr,
		ServiceName: "location-consumer",
		Service:     svc,
	}

	if err := lifecycle.RunServer(ctx, opts); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

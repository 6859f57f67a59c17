/*
Copyright 2025 Usagegate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/usagegate/usagegate/api"
	"github.com/usagegate/usagegate/config"
)

func initializeRouter(b *appInstance) (*gin.Engine, error) {
	a, err := api.NewAPI(b.store)
	if err != nil {
		return nil, err
	}
	return a.Router(), nil
}

func startServer(router *gin.Engine, cfg config.ServerConfig) error {
	log.Printf("Starting server on http://localhost:%s", cfg.Port)
	return router.Run(":" + cfg.Port)
}

// serverCommands returns the Cobra command responsible for starting the
// HTTP server.
func serverCommands(b *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start usagegate server",
		Run: func(cmd *cobra.Command, args []string) {
			router, err := initializeRouter(b)
			if err != nil {
				log.Fatal(err)
			}

			cfg, err := config.Fetch()
			if err != nil {
				log.Fatal(err)
			}

			if err := startServer(router, cfg.Server); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}

package main

import (
	"os"

	"github.com/joho/godotenv"

	"pos_kiosk_backend/internal/broadcast"
	"pos_kiosk_backend/internal/database"
	"pos_kiosk_backend/internal/router"
	"pos_kiosk_backend/pkg/utils"
)

func main() {
	dotenvErr := godotenv.Load()

	utils.InitLogger()
	if dotenvErr != nil {
		// Running without a .env file is fine in containerized deploys.
		utils.LogInfo(".env file not found, relying on environment")
	}

	db, err := database.InitDB()
	if err != nil {
		utils.LogError(err, "failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	hub := broadcast.NewHub(utils.GetenvInt("SESSION_BUFFER_SIZE", 0))

	r := router.Setup(db, hub)

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("starting server on port " + port)
	if err := r.Run(":" + port); err != nil {
		utils.LogError(err, "server stopped")
		os.Exit(1)
	}
}

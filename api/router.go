package api

import (
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/sheet"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 对局相关的路由组 /api/games
		gameRoutes := api.Group("/games")
		{
			gameRoutes.POST("", sheet.StartGame)
			gameRoutes.GET("/current", sheet.GetCurrent)
			gameRoutes.POST("/current/rounds", sheet.SubmitRound)
			gameRoutes.GET("/current/progression", sheet.GetProgression)
			gameRoutes.DELETE("/current", sheet.AbandonGame)

			// 历史相关的路由
			gameRoutes.GET("/history", sheet.GetHistoryList)
			gameRoutes.DELETE("/history", sheet.DeleteGames)
		}
	}
}

package internal

import (
	"chatpulse/internal/controllers"
	"chatpulse/internal/providers"
	"chatpulse/internal/structures"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/api/events", http.HandlerFunc(apiController.ReceiveEvent))
	routers.Get("/api/groups", http.HandlerFunc(apiController.GetGroups))
	routers.Get("/api/group", http.HandlerFunc(apiController.GetGroup))
	routers.Get("/api/users", http.HandlerFunc(apiController.GetUsers))
	routers.Get("/api/user", http.HandlerFunc(apiController.GetUser))
	routers.Get("/api/overview", http.HandlerFunc(apiController.GetOverview))
	routers.Get("/api/export", http.HandlerFunc(apiController.Export))
	return routers
}

package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/handlers"
	"studymate.dev/studymate-backend/services"
)

func CreateChatRoutes(db *sql.DB, ai services.TextGenerator, dispatcher services.EventDispatcher, router *mux.Router) *mux.Router {
	router.HandleFunc("/chats", handlers.CreateChat(db, ai, dispatcher)).Methods("POST")
	router.HandleFunc("/chats", handlers.GetChats(db)).Methods("GET")
	router.HandleFunc("/chats/{id}", handlers.GetChatById(db)).Methods("GET")
	router.HandleFunc("/chats/{id}/messages", handlers.CreateChatMessage(db, ai)).Methods("POST")

	return router
}

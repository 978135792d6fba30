package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"studymate.dev/studymate-backend/handlers"
	"studymate.dev/studymate-backend/services"
)

func CreateQuizRoutes(db *sql.DB, ai services.TextGenerator, dispatcher services.EventDispatcher, router *mux.Router) *mux.Router {
	router.HandleFunc("/quizzes", handlers.CreateQuiz(db, ai, dispatcher)).Methods("POST")
	router.HandleFunc("/quizzes", handlers.GetQuizzes(db)).Methods("GET")
	router.HandleFunc("/quizzes/{id}", handlers.GetQuizById(db)).Methods("GET")

	return router
}

package handlers

import "github.com/gofiber/fiber/v2"

type Routes struct {
	Upload   *UploadHandler
	Analyze  *AnalyzeHandler
	Feedback *FeedbackHandler
	Profile  *ProfileHandler
}

// Register mounts the API. CORS runs before routing so preflight requests
// never reach the method check.
func (r Routes) Register(router fiber.Router) {
	router.Use("/upload", CORS(postMethods))
	router.Use("/analyze", CORS(postMethods))
	router.Use("/users", CORS(userMethods))

	router.Post("/upload", r.Upload.HandleUpload)
	router.All("/upload", MethodNotAllowed)

	router.Post("/analyze", r.Analyze.HandleAnalyze)
	router.All("/analyze", MethodNotAllowed)

	users := router.Group("/users/:userId")
	users.Get("/feedback", r.Feedback.HandleList)
	users.Post("/feedback", r.Feedback.HandleCreate)
	users.Get("/profile", r.Profile.HandleGet)
	users.Put("/profile", r.Profile.HandleUpdate)
}

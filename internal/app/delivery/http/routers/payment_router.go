package routers

import (
	"maternity-service/internal/app/delivery/http/controllers"
	"maternity-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachPaymentRoutes(router chi.Router, middlewares *middlewares.Middlewares, paymentController *controllers.PaymentController) {
	router.With(middlewares.BodyLimit).Post("/", paymentController.StartPayment)
	router.Get("/records", paymentController.ListPaymentRecords)
	router.Get("/records/{receiptNumber}", paymentController.GetPaymentRecord)
	router.Get("/{intentID}", paymentController.GetPaymentStatus)
	router.Post("/{intentID}/cancel", paymentController.CancelPayment)
}

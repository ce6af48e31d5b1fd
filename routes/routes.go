// Package routes cung cấp tất cả routing functions cho Locality Resolver Service
//
// Cấu trúc:
// - api.go: API routes (/api/v1/*), health routes và middleware
// - web.go: Web routes (/)
//
// Sử dụng:
// routes.SetupAllRoutes(router, logger, locationController, collegeController, adminController)
package routes

// Version phiên bản service trả về ở "/" và health check
const Version = "1.0.0"

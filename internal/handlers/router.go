package handlers

import "github.com/go-chi/chi/v5"

// PortalRouter registers the portal routes. The admin dashboard sits
// behind the plain authenticated guard; admin privilege is decided at
// login time by the admin flag copied into the session.
func PortalRouter(r chi.Router, auth *AuthHandler, users *UserHandler) {
	r.Get("/", auth.Root)
	r.Get("/adminlogin", auth.AdminLoginPage)
	r.Post("/adminlogin", auth.AdminLogin)
	r.Get("/register", users.RegisterPage)
	r.Post("/register", users.Register)
	r.Post("/login", auth.Login)
	r.Get("/logout", auth.Logout)

	r.With(RequireAuth).Get("/user", users.UserDashboard)
	r.With(RequireAuth).Get("/admin", users.AdminDashboard)
	r.With(RequireAuth).Get("/update/{id}", users.UpdateForm)
	r.Post("/update/{id}", users.Update)
	r.With(RequireAuth).Get("/delete/{id}", users.DeleteRedirect)
	r.With(RequireAuth).Post("/delete/{id}", users.Delete)
	r.With(RequireAuth).Get("/uploads/{filename}", users.ServeUpload)
}

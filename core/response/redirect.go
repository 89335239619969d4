package response

import (
	"net/http"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// Redirect creates a 302 Found response.
func Redirect(url string) handler.Response {
	return redirect(url, http.StatusFound)
}

// RedirectPermanent creates a 301 Moved Permanently response.
func RedirectPermanent(url string) handler.Response {
	return redirect(url, http.StatusMovedPermanently)
}

// RedirectSeeOther creates a 303 See Other response, typically after a POST.
func RedirectSeeOther(url string) handler.Response {
	return redirect(url, http.StatusSeeOther)
}

func redirect(url string, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		http.Redirect(w, r, url, status)
		return nil
	}
}

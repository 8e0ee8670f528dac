// Package article provides read access to classified articles for clients.
package article

import "errors"

// ErrArticleNotFound indicates that the requested article does not exist.
var ErrArticleNotFound = errors.New("article not found")

// Package rest implements the optional external transport profile for
// the publish.Backend port (spec.md 6.3): HEAD/PUT over a subject's DID,
// exchanging revisions as hex-encoded ETag/If-Match headers.
package rest

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/dialog-db/dialog/log"
	"github.com/dialog-db/dialog/publish"
	"github.com/dialog-db/dialog/store"
)

var logger = log.WithContext("pkg", "publish/rest")

// revisionPayload is the PUT request body: the new revision, hex-encoded.
type revisionPayload struct {
	Revision string `json:"revision"`
}

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string { return e.cause.Error() }

func badRequest(cause error) error { return &httpError{cause: cause, status: http.StatusBadRequest} }

// handlerFunc mirrors the teacher's WrapHandlerFunc convention: handlers
// return an error, and a *httpError carries its own status code.
type handlerFunc func(http.ResponseWriter, *http.Request) error

func wrap(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			if he, ok := err.(*httpError); ok {
				http.Error(w, he.cause.Error(), he.status)
				return
			}
			logger.Error("publish/rest: handler failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// Server exposes a publish.Backend over the spec.md 6.3 REST profile.
type Server struct {
	backend publish.Backend
}

// NewServer wraps backend for HTTP serving.
func NewServer(backend publish.Backend) *Server {
	return &Server{backend: backend}
}

// Mount registers the server's routes under pathPrefix (e.g. "/register"),
// following the teacher's sub-router Mount convention.
func (s *Server) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{subject}").
		Methods(http.MethodHead).
		Name("HEAD /{subject}").
		HandlerFunc(wrap(s.handleHead))

	sub.Path("/{subject}").
		Methods(http.MethodPut).
		Name("PUT /{subject}").
		HandlerFunc(wrap(s.handlePut))
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) error {
	subject := mux.Vars(r)["subject"]

	_, edition, ok, err := s.backend.Get(subject)
	if err != nil {
		return errors.WithMessage(err, "cas get")
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return nil
	}

	w.Header().Set("ETag", string(edition))
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) error {
	subject := mux.Vars(r)["subject"]

	var payload revisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return badRequest(errors.WithMessage(err, "body"))
	}
	raw, err := hex.DecodeString(payload.Revision)
	if err != nil {
		return badRequest(errors.WithMessage(err, "revision"))
	}
	revision, err := store.DecodeRevision(raw)
	if err != nil {
		return badRequest(errors.WithMessage(err, "revision"))
	}

	expected := publish.Edition(r.Header.Get("If-Match"))

	edition, err := s.backend.Set(subject, expected, revision)
	if err != nil {
		var mismatch *publish.MismatchError
		if errors.As(err, &mismatch) {
			w.Header().Set("ETag", string(mismatch.Actual))
			http.Error(w, err.Error(), http.StatusPreconditionFailed)
			return nil
		}
		var notFound *publish.NotFoundError
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil
		}
		return errors.WithMessage(err, "cas set")
	}

	w.Header().Set("ETag", string(edition))
	w.WriteHeader(http.StatusOK)
	return nil
}

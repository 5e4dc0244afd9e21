package boards

import (
	"encoding/json"
	"errors"
	"net/http"

	"marker-mind/core"
	"marker-mind/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// maxBodySize bounds a board upload.
const maxBodySize = 16 << 20

func HandleListBoards(store core.BoardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		boards, err := store.List(r.Context(), owner)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"owner_id": owner,
			}).Error("Failed to list boards")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list boards"})
			return
		}

		// Return an empty array rather than null for owners without boards.
		if boards == nil {
			boards = []*core.Board{}
		}

		render.JSON(w, r, boards)
	}
}

func HandleGetBoard(store core.BoardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, ok := ownerAndID(w, r)
		if !ok {
			return
		}

		board, err := store.Get(r.Context(), owner, id)
		if err != nil {
			writeStoreError(w, r, err, "Failed to get board", owner, id)
			return
		}

		render.JSON(w, r, board)
	}
}

func HandleSaveBoard(store core.BoardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, ok := ownerAndID(w, r)
		if !ok {
			return
		}
		defer r.Body.Close()

		var req core.SaveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"board_id": id,
			}).Warn("Failed to decode board")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid board payload"})
			return
		}

		name := id // Default to the id for new boards.
		if req.Name != nil {
			name = *req.Name
		} else if existing, err := store.Get(r.Context(), owner, id); err == nil {
			name = existing.Name
		} else if !errors.Is(err, core.ErrNotFound) {
			writeStoreError(w, r, err, "Failed to get board", owner, id)
			return
		}

		board := &core.Board{
			ID:      id,
			OwnerID: owner,
			Name:    name,
			Objects: clampObjects(req.Objects),
		}
		if err := store.Save(r.Context(), board); err != nil {
			writeStoreError(w, r, err, "Failed to save board", owner, id)
			return
		}

		render.JSON(w, r, board.ListView())
	}
}

func HandleDeleteBoard(store core.BoardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, ok := ownerAndID(w, r)
		if !ok {
			return
		}

		if err := store.Delete(r.Context(), owner, id); err != nil {
			writeStoreError(w, r, err, "Failed to delete board", owner, id)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ownerAndID(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "User claims not found"})
		return "", "", false
	}

	id := chi.URLParam(r, "id")
	if err := core.ValidateBoardID(id); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return "", "", false
	}
	return owner, id, true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg, owner, id string) {
	log := logrus.WithFields(logrus.Fields{
		"error":    err,
		"owner_id": owner,
		"board_id": id,
	})
	if errors.Is(err, core.ErrNotFound) {
		log.Warn(msg)
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Board not found"})
		return
	}
	log.Error(msg)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"error": msg})
}

// clampObjects applies the minimum size to uploaded objects.
func clampObjects(s core.Snapshot) core.Snapshot {
	objs := s.Objects()
	for i, o := range objs {
		objs[i] = core.ClampSize(o)
	}
	return core.NewSnapshot(objs...)
}

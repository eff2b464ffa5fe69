package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/splitsearch/pkg/config"
	"github.com/bastiangx/splitsearch/pkg/dict"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for segmented dictionary search. It owns one
// reference on the dictionary and on the result set of the most recent
// query, which "select" requests act against.
type Server struct {
	dict    *dict.Dict
	last    *dict.Matches
	config  *config.Config
	decoder *msgpack.Decoder
	encoder *msgpack.Encoder
}

// NewServer creates a search server using stdin/stdout for IPC. The server
// takes over the caller's reference on d.
func NewServer(d *dict.Dict, cfg *config.Config) *Server {
	return NewServerWithStreams(d, cfg, os.Stdin, os.Stdout)
}

// NewServerWithStreams creates a server over arbitrary streams, mainly so
// tests can drive the loop with buffers.
func NewServerWithStreams(d *dict.Dict, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	return &Server{
		dict:    d,
		config:  cfg,
		decoder: msgpack.NewDecoder(r),
		encoder: msgpack.NewEncoder(w),
	}
}

// Start begins listening for IPC requests. It returns nil once the input
// stream is drained, after releasing the dictionary and any held result set.
func (s *Server) Start() error {
	log.Debug("Starting server.")
	for {
		var request Request
		if err := s.decoder.Decode(&request); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Errorf("Decoding request: %v", err)
				s.shutdown()
				return err
			}
			s.shutdown()
			return nil
		}
		s.handleRequest(&request)
	}
}

func (s *Server) shutdown() {
	if s.config.Dict.AutosavePrefs && s.config.Dict.PrefsFile != "" {
		s.dict.SavePrefs(s.config.Dict.PrefsFile)
	}
	s.dropLast()
	s.dict.Release()
}

func (s *Server) dropLast() {
	if s.last != nil {
		s.last.Release()
		s.last = nil
	}
}

// handleRequest dispatches one decoded message.
func (s *Server) handleRequest(request *Request) {
	switch request.Action {
	case "":
		s.handleQuery(request)
	case "add":
		s.handleAdd(request)
	case "remove":
		s.handleRemove(request)
	case "clear":
		s.dict.Clear()
		s.dropLast()
		s.sendStatus(request.ID, true, "")
	case "select":
		s.handleSelect(request)
	case "save_prefs":
		s.dict.SavePrefs(s.prefsFile(request))
		s.sendStatus(request.ID, true, "")
	case "load_prefs":
		s.dict.LoadPrefs(s.prefsFile(request))
		s.sendStatus(request.ID, true, "")
	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown action: %s", request.Action), 400)
	}
}

func (s *Server) handleQuery(request *Request) {
	if len(request.Query) < s.config.Server.MinSegments {
		s.sendError(request.ID, "Missing 'q' parameter", 400)
		log.Debug("Query is empty in request")
		return
	}
	if len(request.Query) > s.config.Server.MaxSegments {
		s.sendError(request.ID, fmt.Sprintf("Query exceeds maximum of %d segments", s.config.Server.MaxSegments), 400)
		return
	}

	limit := request.Limit
	if limit < 1 || limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}

	start := time.Now()
	matches := s.dict.Search(request.Query)
	elapsed := time.Since(start)

	if matches == nil {
		s.sendError(request.ID, "Missing 'q' parameter", 400)
		return
	}
	matches.KeepFirst(limit)

	s.dropLast()
	s.last = matches

	response := QueryResponse{
		ID:        request.ID,
		Matches:   make([]QueryMatch, 0, matches.Size()),
		Count:     matches.Size(),
		TimeTaken: elapsed.Microseconds(),
	}
	for i := 0; i < matches.Size(); i++ {
		match, _ := matches.At(i)
		data, _ := match.Userdata().(string)
		response.Matches = append(response.Matches, QueryMatch{
			Data:        data,
			Echelon:     match.Echelon(),
			SelectCount: match.SelectCount(),
			Points:      match.Score().Points,
			Penalty:     match.Score().Penalty,
		})
	}
	s.sendResponse(response)
}

func (s *Server) handleAdd(request *Request) {
	if request.Path == "" {
		s.sendError(request.ID, "Missing 'path' parameter", 400)
		return
	}
	ok := s.dict.AddDelimited(request.Path, s.delim(request), s.data(request),
		request.Echelon, request.SelectCount)
	s.sendStatus(request.ID, ok, "")
}

func (s *Server) handleRemove(request *Request) {
	if request.Path == "" {
		s.sendError(request.ID, "Missing 'path' parameter", 400)
		return
	}
	ok := s.dict.RemoveDelimited(request.Path, s.delim(request), s.data(request))
	s.sendStatus(request.ID, ok, "")
}

func (s *Server) handleSelect(request *Request) {
	if request.Index == nil {
		s.sendError(request.ID, "Missing 'index' parameter", 400)
		return
	}
	if s.last == nil {
		s.sendError(request.ID, "No query results to select from", 409)
		return
	}
	if *request.Index < 0 || *request.Index >= s.last.Size() {
		s.sendError(request.ID, "Index out of range", 400)
		return
	}
	s.last.Select(*request.Index)
	s.sendStatus(request.ID, true, "")
}

// delim picks the per-request delimiter, falling back to the configured one.
func (s *Server) delim(request *Request) byte {
	if len(request.Delimiter) == 1 {
		return request.Delimiter[0]
	}
	return s.config.Delim()
}

// data picks the userdata handle for a mutation; the path string itself is
// the default.
func (s *Server) data(request *Request) string {
	if request.Data != "" {
		return request.Data
	}
	return request.Path
}

func (s *Server) prefsFile(request *Request) string {
	if request.File != "" {
		return request.File
	}
	return s.config.Dict.PrefsFile
}

// sendResponse encodes one message onto the output stream.
func (s *Server) sendResponse(response interface{}) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendStatus(id string, ok bool, detail string) {
	status := "ok"
	if !ok {
		status = "rejected"
	}
	s.sendResponse(DictResponse{ID: id, Status: status, OK: ok, Error: detail})
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}

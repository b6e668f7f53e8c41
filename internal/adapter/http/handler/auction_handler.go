package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/usecase"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxPictureBytes caps picture uploads at 5 MiB.
const maxPictureBytes = 5 << 20

// AuctionHandler exposes the auction lifecycle over JSON HTTP.
type AuctionHandler struct {
	itemUC     *usecase.ItemUsecase
	bidUC      *usecase.BidUsecase
	questionUC *usecase.QuestionUsecase
	photoUC    *usecase.PhotoUsecase
	metrics    *metrics.MetricsManager
	logger     *logger.Logger
}

// NewAuctionHandler creates a new AuctionHandler.
func NewAuctionHandler(itemUC *usecase.ItemUsecase, bidUC *usecase.BidUsecase, questionUC *usecase.QuestionUsecase, photoUC *usecase.PhotoUsecase, mm *metrics.MetricsManager, log *logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		itemUC:     itemUC,
		bidUC:      bidUC,
		questionUC: questionUC,
		photoUC:    photoUC,
		metrics:    mm,
		logger:     log.Named("AuctionHTTPHandler"),
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondWithError maps domain errors to HTTP status codes and the JSON
// error envelope.
func (h *AuctionHandler) respondWithError(w http.ResponseWriter, method string, err error) {
	var vErr *domain.ValidationError
	var lowErr *domain.BidTooLowError

	status := http.StatusInternalServerError
	body := envelope{Success: false, Error: err.Error()}

	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		body.Error = "invalid input"
		body.Errors = vErr.Fields
	case errors.As(err, &lowErr):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		body.Error = "not found"
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrSelfBid), errors.Is(err, domain.ErrAuctionEnded), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrOptimisticLock):
		status = http.StatusConflict
		body.Error = "the item changed concurrently, please retry"
	default:
		body.Error = "internal server error"
		h.logger.Error("Unhandled error in HTTP handler", zap.String("method", method), zap.Error(err))
	}

	if h.metrics != nil {
		h.metrics.AuctionAPIErrorsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
	respondWithJSON(w, status, body)
}

func (h *AuctionHandler) observe(method string, start time.Time) {
	if h.metrics != nil {
		h.metrics.AuctionAPILatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

func itemIDParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "itemId"))
}

// --- View models ---

type itemView struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	OwnerUsername string     `json:"owner_username,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	StartingPrice string     `json:"starting_price"`
	CurrentPrice  string     `json:"current_price"`
	PictureURL    string     `json:"picture_url,omitempty"`
	EndDate       time.Time  `json:"end_date"`
	IsActive      bool       `json:"is_active"`
	WinnerID      *string    `json:"winner_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type bidView struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type questionView struct {
	ID           string     `json:"id"`
	ItemID       string     `json:"item_id"`
	AskerID      string     `json:"asker_id"`
	QuestionText string     `json:"question_text"`
	AnswerText   string     `json:"answer_text,omitempty"`
	AskedAt      time.Time  `json:"asked_at"`
	AnsweredAt   *time.Time `json:"answered_at,omitempty"`
}

func toItemView(i *domain.Item) itemView {
	return itemView{
		ID:            i.ID.Hex(),
		OwnerID:       i.OwnerID,
		OwnerUsername: i.OwnerUsername,
		Title:         i.Title,
		Description:   i.Description,
		StartingPrice: i.StartingPrice.String(),
		CurrentPrice:  i.CurrentPrice.String(),
		PictureURL:    i.PictureURL,
		EndDate:       i.EndDate,
		IsActive:      i.IsActive,
		WinnerID:      i.WinnerID,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

func toBidViews(bids []*domain.Bid) []bidView {
	views := make([]bidView, 0, len(bids))
	for _, b := range bids {
		views = append(views, bidView{
			ID:        b.ID.Hex(),
			ItemID:    b.ItemID.Hex(),
			BidderID:  b.BidderID,
			Amount:    b.Amount.String(),
			CreatedAt: b.CreatedAt,
		})
	}
	return views
}

func toQuestionViews(questions []*domain.Question) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{
			ID:           q.ID.Hex(),
			ItemID:       q.ItemID.Hex(),
			AskerID:      q.AskerID,
			QuestionText: q.QuestionText,
			AnswerText:   q.AnswerText,
			AskedAt:      q.AskedAt,
			AnsweredAt:   q.AnsweredAt,
		})
	}
	return views
}

// --- Item handlers ---

type createItemRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartingPrice string    `json:"starting_price"`
	PictureURL    string    `json:"picture_url"`
	EndDate       time.Time `json:"end_date"`
}

func (h *AuctionHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("CreateItem", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, "CreateItem", domain.NewValidationError(map[string]string{"body": "invalid JSON body"}))
		return
	}

	item, err := h.itemUC.CreateItem(r.Context(), actor, usecase.CreateItemInput{
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		PictureURL:    req.PictureURL,
		EndDate:       req.EndDate,
	})
	if err != nil {
		h.respondWithError(w, "CreateItem", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, envelope{Success: true, Data: toItemView(item)})
}

type updateItemRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	PictureURL  *string    `json:"picture_url"`
	EndDate     *time.Time `json:"end_date"`
}

func (h *AuctionHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("UpdateItem", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	itemID, err := itemIDParam(r)
	if err != nil {
		h.respondWithError(w, "UpdateItem", domain.ErrNotFound)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, "UpdateItem", domain.NewValidationError(map[string]string{"body": "invalid JSON body"}))
		return
	}

	item, err := h.itemUC.UpdateItem(r.Context(), itemID, actor, usecase.UpdateItemInput{
		Title:       req.Title,
		Description: req.Description,
		PictureURL:  req.PictureURL,
		EndDate:     req.EndDate,
	})
	if err != nil {
		h.respondWithError(w, "UpdateItem", err)
		return
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Data: toItemView(item)})
}

func (h *AuctionHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("DeleteItem", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	itemID, err := itemIDParam(r)
	if err != nil {
		h.respondWithError(w, "DeleteItem", domain.ErrNotFound)
		return
	}

	if err := h.itemUC.SoftDeleteItem(r.Context(), itemID, actor); err != nil {
		h.respondWithError(w, "DeleteItem", err)
		return
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *AuctionHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GetItem", time.Now())

	itemID, err := itemIDParam(r)
	if err != nil {
		h.respondWithError(w, "GetItem", domain.ErrNotFound)
		return
	}

	detail, err := h.itemUC.GetItem(r.Context(), itemID)
	if err != nil {
		h.respondWithError(w, "GetItem", err)
		return
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
		"item":      toItemView(detail.Item),
		"bids":      toBidViews(detail.Bids),
		"questions": toQuestionViews(detail.Questions),
	}})
}

func (h *AuctionHandler) HandleSearchItems(w http.ResponseWriter, r *http.Request) {
	defer h.observe("SearchItems", time.Now())

	query := r.URL.Query().Get("q")
	page := parseIntQueryParam(r, "page", 1)
	limit := parseIntQueryParam(r, "limit", 20)

	items, err := h.itemUC.SearchItems(r.Context(), query, page, limit)
	if err != nil {
		h.respondWithError(w, "SearchItems", err)
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, toItemView(item))
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Data: views})
}

// --- Bid handlers ---

type placeBidRequest struct {
	Amount string `json:"amount"`
}

func (h *AuctionHandler) HandlePlaceBid(w http.ResponseWriter, r *http.Request) {
	defer h.observe("PlaceBid", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	itemID, err := itemIDParam(r)
	if err != nil {
		h.respondWithError(w, "PlaceBid", domain.ErrNotFound)
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, "PlaceBid", domain.NewValidationError(map[string]string{"body": "invalid JSON body"}))
		return
	}

	bid, err := h.bidUC.PlaceBid(r.Context(), itemID, actor, req.Amount)
	if err != nil {
		if h.metrics != nil {
			h.metrics.BidsRejectedTotal.WithLabelValues(bidRejectReason(err)).Inc()
		}
		h.respondWithError(w, "PlaceBid", err)
		return
	}
	if h.metrics != nil {
		h.metrics.BidsPlacedTotal.Inc()
	}
	respondWithJSON(w, http.StatusCreated, envelope{Success: true, Data: bidView{
		ID:        bid.ID.Hex(),
		ItemID:    bid.ItemID.Hex(),
		BidderID:  bid.BidderID,
		Amount:    bid.Amount.String(),
		CreatedAt: bid.CreatedAt,
	}})
}

func bidRejectReason(err error) string {
	var lowErr *domain.BidTooLowError
	switch {
	case errors.As(err, &lowErr):
		return "too_low"
	case errors.Is(err, domain.ErrSelfBid):
		return "self_bid"
	case errors.Is(err, domain.ErrAuctionEnded):
		return "ended"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_amount"
	case errors.Is(err, domain.ErrOptimisticLock):
		return "conflict"
	default:
		return "error"
	}
}

// --- Question handlers ---

type askQuestionRequest struct {
	QuestionText string `json:"question_text"`
}

func (h *AuctionHandler) HandleAskQuestion(w http.ResponseWriter, r *http.Request) {
	defer h.observe("AskQuestion", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	itemID, err := itemIDParam(r)
	if err != nil {
		h.respondWithError(w, "AskQuestion", domain.ErrNotFound)
		return
	}

	var req askQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, "AskQuestion", domain.NewValidationError(map[string]string{"body": "invalid JSON body"}))
		return
	}

	question, err := h.questionUC.AskQuestion(r.Context(), itemID, actor, req.QuestionText)
	if err != nil {
		h.respondWithError(w, "AskQuestion", err)
		return
	}
	if h.metrics != nil {
		h.metrics.QuestionsAskedTotal.Inc()
	}
	respondWithJSON(w, http.StatusCreated, envelope{Success: true, Data: toQuestionViews([]*domain.Question{question})[0]})
}

type answerQuestionRequest struct {
	AnswerText string `json:"answer_text"`
}

func (h *AuctionHandler) HandleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	defer h.observe("AnswerQuestion", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	questionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "questionId"))
	if err != nil {
		h.respondWithError(w, "AnswerQuestion", domain.ErrNotFound)
		return
	}

	var req answerQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, "AnswerQuestion", domain.NewValidationError(map[string]string{"body": "invalid JSON body"}))
		return
	}

	question, err := h.questionUC.AnswerQuestion(r.Context(), questionID, actor, req.AnswerText)
	if err != nil {
		h.respondWithError(w, "AnswerQuestion", err)
		return
	}
	if h.metrics != nil {
		h.metrics.QuestionsAnsweredTotal.Inc()
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Data: toQuestionViews([]*domain.Question{question})[0]})
}

// --- Picture upload ---

func (h *AuctionHandler) HandleUploadPicture(w http.ResponseWriter, r *http.Request) {
	defer h.observe("UploadPicture", time.Now())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	itemID, err := itemIDParam(r)
	if err != nil {
		h.respondWithError(w, "UploadPicture", domain.ErrNotFound)
		return
	}

	if err := r.ParseMultipartForm(maxPictureBytes); err != nil {
		h.respondWithError(w, "UploadPicture", domain.NewValidationError(map[string]string{"picture": "invalid multipart form"}))
		return
	}
	file, header, err := r.FormFile("picture")
	if err != nil {
		h.respondWithError(w, "UploadPicture", domain.NewValidationError(map[string]string{"picture": "picture file is required"}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPictureBytes))
	if err != nil {
		h.respondWithError(w, "UploadPicture", err)
		return
	}

	url, err := h.photoUC.UploadPicture(r.Context(), itemID, actor, header.Filename, data)
	if err != nil {
		h.respondWithError(w, "UploadPicture", err)
		return
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"picture_url": url}})
}

func parseIntQueryParam(r *http.Request, key string, defaultValue int64) int64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	valInt, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return valInt
}

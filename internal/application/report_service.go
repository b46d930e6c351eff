package application

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
	repo "github.com/oksasatya/smartagricare-api/internal/domain/repository"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
	"github.com/oksasatya/smartagricare-api/pkg/validation"
)

type ReportService struct {
	Store  repo.Store
	Logger *logrus.Logger

	validate *validator.Validate
}

func NewReportService(store repo.Store, v *validator.Validate, logger *logrus.Logger) *ReportService {
	if v == nil {
		v = validation.New(validation.DefaultPolicy)
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &ReportService{Store: store, Logger: logger, validate: v}
}

// ReportInput is a detection result as sent by the client.
type ReportInput struct {
	Disease    string   `json:"disease" validate:"required,max=200"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=100"`
	Cause      string   `json:"cause" validate:"max=4000"`
	Treatment  []string `json:"treatment" validate:"max=100,dive,max=2000"`
	Stores     []string `json:"stores" validate:"max=100,dive,max=2000"`
	ImageName  string   `json:"imageName" validate:"max=255"`
}

// Save stores a report owned by userID and returns its id.
func (s *ReportService) Save(ctx context.Context, userID int64, in ReportInput) (int64, error) {
	if userID <= 0 {
		return 0, ErrUnauthorized
	}
	if err := s.validate.Struct(in); err != nil {
		return 0, &ValidationError{Fields: validation.ToDetails(err)}
	}

	r := &entity.DiseaseReport{
		UserID:     userID,
		Disease:    in.Disease,
		Confidence: in.Confidence,
		Cause:      in.Cause,
		Treatment:  orEmpty(in.Treatment),
		Stores:     orEmpty(in.Stores),
		ImageName:  in.ImageName,
	}
	id, err := s.Store.Reports().Save(ctx, r)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("save report failed")
		return 0, internalErr("save report", err)
	}
	s.Logger.WithFields(logrus.Fields{"user_id": userID, "report_id": id}).Info("disease report saved")
	return id, nil
}

// List returns the user's reports, most recent first.
func (s *ReportService) List(ctx context.Context, userID int64) ([]entity.DiseaseReport, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	reports, err := s.Store.Reports().ListByUser(ctx, userID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("list reports failed")
		return nil, internalErr("list reports", err)
	}
	return reports, nil
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/appbuilder"
	"github.com/LeoRoessmann/KT-course/core/vcs"
)

type (
	LoginRequest struct {
		Key string `json:"key" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	InstructorStatus struct {
		Enabled bool `json:"enabled"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	LaunchRequest struct {
		RunTarget string `json:"run_target"`
	}

	LaunchResponse struct {
		PID   int    `json:"pid"`
		Label string `json:"label"`
	}

	DeadlineRequest struct {
		Deadline string `json:"deadline" validate:"required,isodate"`
	}

	DeadlineResponse struct {
		Deadline        string `json:"deadline"`
		DeadlineDisplay string `json:"deadline_display"`
	}

	DoneResponse struct {
		DoneDate string `json:"done_date"`
	}

	ExpansionRequest struct {
		Title string `json:"title" validate:"required"`
		Open  *bool  `json:"open" validate:"required"`
	}

	PathResponse struct {
		Path    string `json:"path"`
		Created bool   `json:"created,omitempty"`
	}

	MarkdownResponse struct {
		Markdown string `json:"markdown"`
	}

	MailtoResponse struct {
		Mailto string `json:"mailto"`
	}

	EventRequest struct {
		PathID string      `json:"path_id" validate:"required"`
		Value  interface{} `json:"value"`
	}

	EventResponse struct {
		appbuilder.Snapshot
		Error string `json:"error,omitempty"`
	}

	AssignmentRequest struct {
		Assignment string `json:"assignment" validate:"required"`
	}

	AssignmentResponse struct {
		Active    string   `json:"active"`
		Available []string `json:"available"`
	}

	PullRequest struct {
		Remote string `json:"remote"`
	}

	PullResponse struct {
		vcs.Step
		Remote string `json:"remote"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Key = core.CleanString(lr.Key)
	return validate.Struct(lr)
}

func (dr *DeadlineRequest) Validate(validate *validator.Validate) error {
	dr.Deadline = core.CleanString(dr.Deadline)
	if len(dr.Deadline) > len(core.ISODateLayout) {
		dr.Deadline = dr.Deadline[:len(core.ISODateLayout)]
	}
	return validate.Struct(dr)
}

func (er *ExpansionRequest) Validate(validate *validator.Validate) error {
	er.Title = core.CleanString(er.Title)
	return validate.Struct(er)
}

func (er *EventRequest) Validate(validate *validator.Validate) error {
	er.PathID = core.CleanString(er.PathID)
	return validate.Struct(er)
}

func (ar *AssignmentRequest) Validate(validate *validator.Validate) error {
	ar.Assignment = core.CleanString(ar.Assignment)
	return validate.Struct(ar)
}

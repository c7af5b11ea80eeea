// Package review cài đặt state machine phía client cho luồng
// nhập văn bản -> sinh flashcard -> duyệt từng proposal -> lưu.
// Danh sách proposal trong Machine là nguồn sự thật duy nhất;
// view chỉ nhận snapshot bất biến qua State().
package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Giữ đồng bộ với services.SourceTextMinLength / SourceTextMaxLength
const (
	SourceTextMinLength = 1000
	SourceTextMaxLength = 10000
)

type Step string

const (
	StepInput      Step = "input"
	StepGenerating Step = "generating"
	StepReview     Step = "review"
)

type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusAccepted ProposalStatus = "accepted"
	StatusRejected ProposalStatus = "rejected"
)

// Proposal là một flashcard ứng viên chưa lưu, ID ổn định theo batch
// (dựa trên index vì server chưa cấp ID cho proposal).
type Proposal struct {
	ID        string
	FrontText string
	BackText  string
	Status    ProposalStatus
	IsEditing bool

	// Giá trị đã commit gần nhất, dùng cho cancel-edit
	committedFront string
	committedBack  string
	edited         bool
}

// State là snapshot trạng thái cho view, Error nằm ngoài trục Step.
type State struct {
	Step            Step
	SourceText      string
	ValidationError string
	GenerationID    string
	Proposals       []Proposal
	IsGenerating    bool
	IsSaving        bool
	Error           string
}

// API trừu tượng hóa 2 endpoint mà machine cần, test thay bằng fake.
type API interface {
	GenerateFlashcards(ctx context.Context, sourceText, model string) (*GenerateResult, error)
	SaveFlashcards(ctx context.Context, generationID string, cards []FlashcardToSave) ([]SavedFlashcard, error)
}

var (
	ErrRequestInFlight  = errors.New("đang có request chưa hoàn thành")
	ErrNothingToSave    = errors.New("chưa chấp nhận flashcard nào để lưu")
	ErrNotInReview      = errors.New("chưa ở bước review")
	ErrInvalidTransform = errors.New("thao tác không hợp lệ với trạng thái hiện tại")
)

type Machine struct {
	api   API
	model string
	state State
}

func NewMachine(api API) *Machine {
	return &Machine{
		api:   api,
		state: State{Step: StepInput},
	}
}

// SetModel chọn model cho các lần sinh tiếp theo (rỗng = mặc định server).
func (m *Machine) SetModel(model string) {
	m.model = model
}

// State trả về snapshot; proposals được copy để view không sửa được state.
func (m *Machine) State() State {
	snap := m.state
	snap.Proposals = make([]Proposal, len(m.state.Proposals))
	copy(snap.Proposals, m.state.Proposals)
	return snap
}

// SetSourceText cập nhật văn bản nguồn và validate độ dài.
// Văn bản rỗng không báo lỗi (người dùng đang gõ dở).
func (m *Machine) SetSourceText(text string) {
	m.state.SourceText = text
	m.state.ValidationError = ""

	n := utf8.RuneCountInString(text)
	if n == 0 {
		return
	}
	if n < SourceTextMinLength {
		m.state.ValidationError = "Văn bản phải có ít nhất " + strconv.Itoa(SourceTextMinLength) + " ký tự"
	} else if n > SourceTextMaxLength {
		m.state.ValidationError = "Văn bản không được vượt quá " + strconv.Itoa(SourceTextMaxLength) + " ký tự"
	}
}

// StartGeneration: input --(submit hợp lệ)--> generating --> review | input.
// Thất bại server đưa về input kèm Error, bỏ proposals dở dang.
func (m *Machine) StartGeneration(ctx context.Context) error {
	if m.state.IsGenerating || m.state.IsSaving {
		return ErrRequestInFlight
	}

	n := utf8.RuneCountInString(m.state.SourceText)
	if n < SourceTextMinLength || n > SourceTextMaxLength {
		m.state.ValidationError = fmt.Sprintf("Độ dài văn bản phải nằm trong khoảng %d–%d ký tự", SourceTextMinLength, SourceTextMaxLength)
		return errors.New(m.state.ValidationError)
	}

	m.state.Step = StepGenerating
	m.state.IsGenerating = true
	m.state.Error = ""

	result, err := m.api.GenerateFlashcards(ctx, m.state.SourceText, m.model)
	if err != nil {
		m.state.Step = StepInput
		m.state.IsGenerating = false
		m.state.Proposals = nil
		m.state.Error = err.Error()
		return err
	}

	proposals := make([]Proposal, len(result.Flashcards))
	for i, card := range result.Flashcards {
		proposals[i] = Proposal{
			ID:             strconv.Itoa(i),
			FrontText:      card.FrontText,
			BackText:       card.BackText,
			Status:         StatusPending,
			committedFront: card.FrontText,
			committedBack:  card.BackText,
		}
	}

	m.state.Step = StepReview
	m.state.IsGenerating = false
	m.state.GenerationID = result.GenerationID
	m.state.Proposals = proposals
	return nil
}

func (m *Machine) findProposal(id string) *Proposal {
	for i := range m.state.Proposals {
		if m.state.Proposals[i].ID == id {
			return &m.state.Proposals[i]
		}
	}
	return nil
}

// Accept: pending/rejected --> accepted, thoát chế độ edit nếu đang bật.
func (m *Machine) Accept(id string) error {
	p := m.findProposal(id)
	if p == nil {
		return ErrInvalidTransform
	}
	p.Status = StatusAccepted
	p.IsEditing = false
	return nil
}

func (m *Machine) Reject(id string) error {
	p := m.findProposal(id)
	if p == nil {
		return ErrInvalidTransform
	}
	p.Status = StatusRejected
	p.IsEditing = false
	return nil
}

// ToggleEdit bật/tắt chế độ sửa, không đổi status.
func (m *Machine) ToggleEdit(id string) error {
	p := m.findProposal(id)
	if p == nil {
		return ErrInvalidTransform
	}
	p.IsEditing = !p.IsEditing
	return nil
}

// SaveEdit commit nội dung mới; card đã sửa tự động được chấp nhận.
func (m *Machine) SaveEdit(id, frontText, backText string) error {
	p := m.findProposal(id)
	if p == nil || !p.IsEditing {
		return ErrInvalidTransform
	}
	if frontText == "" || backText == "" ||
		utf8.RuneCountInString(frontText) > 1000 || utf8.RuneCountInString(backText) > 1000 {
		return errors.New("nội dung flashcard không hợp lệ")
	}

	p.FrontText = frontText
	p.BackText = backText
	p.committedFront = frontText
	p.committedBack = backText
	p.edited = true
	p.Status = StatusAccepted
	p.IsEditing = false
	return nil
}

// CancelEdit khôi phục giá trị commit gần nhất (không nhất thiết là
// giá trị gốc từ server nếu đã từng SaveEdit trước đó).
func (m *Machine) CancelEdit(id string) error {
	p := m.findProposal(id)
	if p == nil || !p.IsEditing {
		return ErrInvalidTransform
	}
	p.FrontText = p.committedFront
	p.BackText = p.committedBack
	p.IsEditing = false
	return nil
}

// AcceptAll áp dụng cho mọi proposal không ở chế độ edit, trong một lần
// cập nhật duy nhất (không có trạng thái trung gian).
func (m *Machine) AcceptAll() {
	for i := range m.state.Proposals {
		if m.state.Proposals[i].IsEditing {
			continue
		}
		m.state.Proposals[i].Status = StatusAccepted
	}
}

func (m *Machine) RejectAll() {
	for i := range m.state.Proposals {
		if m.state.Proposals[i].IsEditing {
			continue
		}
		m.state.Proposals[i].Status = StatusRejected
	}
}

// SaveAccepted gửi các proposal đã chấp nhận lên server.
// Không có card nào được chấp nhận thì chặn ngay, không gọi mạng.
// Thành công: reset toàn bộ về bước input. Thất bại: giữ nguyên review
// để người dùng retry mà không mất proposal.
func (m *Machine) SaveAccepted(ctx context.Context) error {
	if m.state.Step != StepReview {
		return ErrNotInReview
	}
	if m.state.IsGenerating || m.state.IsSaving {
		return ErrRequestInFlight
	}

	var toSave []FlashcardToSave
	for _, p := range m.state.Proposals {
		if p.Status != StatusAccepted {
			continue
		}
		creation := "ai"
		if p.edited {
			creation = "ai-edited"
		}
		toSave = append(toSave, FlashcardToSave{
			FrontText: p.FrontText,
			BackText:  p.BackText,
			Creation:  creation,
		})
	}

	if len(toSave) == 0 {
		m.state.Error = "Hãy chấp nhận ít nhất một flashcard trước khi lưu"
		return ErrNothingToSave
	}

	m.state.IsSaving = true
	m.state.Error = ""

	_, err := m.api.SaveFlashcards(ctx, m.state.GenerationID, toSave)
	if err != nil {
		m.state.IsSaving = false
		m.state.Error = err.Error()
		return err
	}

	// Reset về trạng thái ban đầu sau khi lưu thành công
	m.state = State{Step: StepInput}
	return nil
}

// Reset bỏ toàn bộ proposal và quay về bước nhập văn bản.
func (m *Machine) Reset() {
	m.state = State{Step: StepInput}
}

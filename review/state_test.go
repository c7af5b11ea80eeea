package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	generateCalls int
	saveCalls     int

	generateResult *GenerateResult
	generateErr    error

	lastGenerationID string
	lastSaved        []FlashcardToSave
	saveErr          error
}

func (f *fakeAPI) GenerateFlashcards(ctx context.Context, sourceText, model string) (*GenerateResult, error) {
	f.generateCalls++
	return f.generateResult, f.generateErr
}

func (f *fakeAPI) SaveFlashcards(ctx context.Context, generationID string, cards []FlashcardToSave) ([]SavedFlashcard, error) {
	f.saveCalls++
	f.lastGenerationID = generationID
	f.lastSaved = cards
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return make([]SavedFlashcard, len(cards)), nil
}

func twoCardResult() *GenerateResult {
	return &GenerateResult{
		GenerationID: "gen-1",
		Flashcards: []GeneratedCard{
			{FrontText: "Q1", BackText: "A1"},
			{FrontText: "Q2", BackText: "A2"},
		},
	}
}

// machineInReview dựng machine đã sinh xong, đang ở bước review.
func machineInReview(t *testing.T, api *fakeAPI) *Machine {
	t.Helper()
	if api.generateResult == nil && api.generateErr == nil {
		api.generateResult = twoCardResult()
	}
	m := NewMachine(api)
	m.SetSourceText(strings.Repeat("a", SourceTextMinLength))
	require.NoError(t, m.StartGeneration(context.Background()))
	require.Equal(t, StepReview, m.State().Step)
	return m
}

func TestSetSourceTextValidation(t *testing.T) {
	m := NewMachine(&fakeAPI{})

	m.SetSourceText("")
	assert.Empty(t, m.State().ValidationError, "văn bản rỗng chưa phải lỗi")

	m.SetSourceText("quá ngắn")
	assert.NotEmpty(t, m.State().ValidationError)

	m.SetSourceText(strings.Repeat("a", SourceTextMaxLength+1))
	assert.NotEmpty(t, m.State().ValidationError)

	m.SetSourceText(strings.Repeat("a", SourceTextMinLength))
	assert.Empty(t, m.State().ValidationError)
}

func TestStartGenerationRejectsInvalidLength(t *testing.T) {
	api := &fakeAPI{}
	m := NewMachine(api)
	m.SetSourceText("ngắn")

	err := m.StartGeneration(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepInput, m.State().Step)
	assert.Zero(t, api.generateCalls, "văn bản không hợp lệ không được gọi API")
}

func TestStartGenerationSuccess(t *testing.T) {
	api := &fakeAPI{generateResult: twoCardResult()}
	m := machineInReview(t, api)

	state := m.State()
	assert.Equal(t, "gen-1", state.GenerationID)
	require.Len(t, state.Proposals, 2)
	for _, p := range state.Proposals {
		assert.Equal(t, StatusPending, p.Status, "mọi proposal khởi đầu ở pending")
		assert.False(t, p.IsEditing)
	}
	assert.Equal(t, "0", state.Proposals[0].ID)
	assert.Equal(t, "1", state.Proposals[1].ID)
}

func TestStartGenerationFailureReturnsToInput(t *testing.T) {
	api := &fakeAPI{generateErr: errors.New("provider sập")}
	m := NewMachine(api)
	m.SetSourceText(strings.Repeat("a", SourceTextMinLength))

	err := m.StartGeneration(context.Background())
	require.Error(t, err)

	state := m.State()
	assert.Equal(t, StepInput, state.Step)
	assert.False(t, state.IsGenerating)
	assert.Empty(t, state.Proposals, "thất bại phải bỏ hết proposal dở dang")
	assert.Contains(t, state.Error, "provider sập")
	assert.Equal(t, strings.Repeat("a", SourceTextMinLength), state.SourceText, "văn bản nguồn được giữ lại để retry")
}

func TestAcceptRejectTransitions(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})

	require.NoError(t, m.Accept("0"))
	assert.Equal(t, StatusAccepted, m.State().Proposals[0].Status)

	// Đổi ý: accepted -> rejected rồi quay lại accepted
	require.NoError(t, m.Reject("0"))
	assert.Equal(t, StatusRejected, m.State().Proposals[0].Status)
	require.NoError(t, m.Accept("0"))
	assert.Equal(t, StatusAccepted, m.State().Proposals[0].Status)

	// Reject card đã rejected là no-op an toàn
	require.NoError(t, m.Reject("1"))
	require.NoError(t, m.Reject("1"))
	assert.Equal(t, StatusRejected, m.State().Proposals[1].Status)

	assert.ErrorIs(t, m.Accept("999"), ErrInvalidTransform)
}

func TestAcceptAllRejectAllSkipEditing(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})
	require.NoError(t, m.ToggleEdit("1"))

	m.AcceptAll()
	state := m.State()
	assert.Equal(t, StatusAccepted, state.Proposals[0].Status)
	assert.Equal(t, StatusPending, state.Proposals[1].Status, "card đang edit không bị đụng tới")

	m.RejectAll()
	state = m.State()
	assert.Equal(t, StatusRejected, state.Proposals[0].Status)
	assert.Equal(t, StatusPending, state.Proposals[1].Status)
}

func TestSaveEditAutoAccepts(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})

	require.NoError(t, m.ToggleEdit("0"))
	require.NoError(t, m.SaveEdit("0", "Q1 mới", "A1 mới"))

	p := m.State().Proposals[0]
	assert.Equal(t, "Q1 mới", p.FrontText)
	assert.Equal(t, "A1 mới", p.BackText)
	assert.Equal(t, StatusAccepted, p.Status, "lưu chỉnh sửa thì tự động chấp nhận")
	assert.False(t, p.IsEditing)
}

func TestSaveEditValidation(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})

	// Chưa bật edit thì không được save
	assert.ErrorIs(t, m.SaveEdit("0", "Q", "A"), ErrInvalidTransform)

	require.NoError(t, m.ToggleEdit("0"))
	assert.Error(t, m.SaveEdit("0", "", "A"))
	assert.Error(t, m.SaveEdit("0", strings.Repeat("x", 1001), "A"))

	// Proposal không đổi sau các lần save thất bại
	p := m.State().Proposals[0]
	assert.Equal(t, "Q1", p.FrontText)
	assert.True(t, p.IsEditing)
}

func TestCancelEditRestoresLastCommit(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})

	// Commit một lần chỉnh sửa trước
	require.NoError(t, m.ToggleEdit("0"))
	require.NoError(t, m.SaveEdit("0", "Q1 đã sửa", "A1 đã sửa"))

	// Cancel lần chỉnh sửa thứ hai phải quay về giá trị đã commit,
	// không phải giá trị gốc từ server
	require.NoError(t, m.ToggleEdit("0"))
	require.NoError(t, m.CancelEdit("0"))

	p := m.State().Proposals[0]
	assert.Equal(t, "Q1 đã sửa", p.FrontText)
	assert.Equal(t, "A1 đã sửa", p.BackText)
	assert.False(t, p.IsEditing)
}

func TestSaveAcceptedBlocksWithoutAcceptedCards(t *testing.T) {
	api := &fakeAPI{}
	m := machineInReview(t, api)
	m.RejectAll()

	err := m.SaveAccepted(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSave)
	assert.Zero(t, api.saveCalls, "không có card được chấp nhận thì không được gọi mạng")

	state := m.State()
	assert.Equal(t, StepReview, state.Step, "vẫn ở review để người dùng đổi ý")
	assert.NotEmpty(t, state.Error)
}

func TestSaveAcceptedSendsProvenance(t *testing.T) {
	api := &fakeAPI{}
	m := machineInReview(t, api)

	require.NoError(t, m.Accept("0"))
	require.NoError(t, m.ToggleEdit("1"))
	require.NoError(t, m.SaveEdit("1", "Q2 sửa", "A2 sửa"))

	require.NoError(t, m.SaveAccepted(context.Background()))

	assert.Equal(t, 1, api.saveCalls)
	assert.Equal(t, "gen-1", api.lastGenerationID)
	require.Len(t, api.lastSaved, 2)
	assert.Equal(t, "ai", api.lastSaved[0].Creation)
	assert.Equal(t, "ai-edited", api.lastSaved[1].Creation, "card đã sửa phải mang provenance ai-edited")

	// Lưu thành công reset toàn bộ về bước nhập
	state := m.State()
	assert.Equal(t, StepInput, state.Step)
	assert.Empty(t, state.SourceText)
	assert.Empty(t, state.Proposals)
	assert.Empty(t, state.GenerationID)
}

func TestSaveAcceptedSkipsRejectedAndPending(t *testing.T) {
	api := &fakeAPI{generateResult: &GenerateResult{
		GenerationID: "gen-1",
		Flashcards: []GeneratedCard{
			{FrontText: "Q1", BackText: "A1"},
			{FrontText: "Q2", BackText: "A2"},
			{FrontText: "Q3", BackText: "A3"},
		},
	}}
	m := machineInReview(t, api)

	require.NoError(t, m.Accept("0"))
	require.NoError(t, m.Reject("1"))
	// "2" để nguyên pending

	require.NoError(t, m.SaveAccepted(context.Background()))
	require.Len(t, api.lastSaved, 1)
	assert.Equal(t, "Q1", api.lastSaved[0].FrontText)
}

func TestSaveAcceptedFailureKeepsProposals(t *testing.T) {
	api := &fakeAPI{saveErr: errors.New("mất mạng")}
	m := machineInReview(t, api)
	m.AcceptAll()

	err := m.SaveAccepted(context.Background())
	require.Error(t, err)

	state := m.State()
	assert.Equal(t, StepReview, state.Step)
	assert.False(t, state.IsSaving)
	assert.Len(t, state.Proposals, 2, "thất bại phải giữ nguyên proposal để retry")
	assert.Contains(t, state.Error, "mất mạng")

	// Retry sau khi server hồi phục
	api.saveErr = nil
	require.NoError(t, m.SaveAccepted(context.Background()))
	assert.Equal(t, 2, api.saveCalls)
	assert.Equal(t, StepInput, m.State().Step)
}

func TestSaveAcceptedRequiresReviewStep(t *testing.T) {
	m := NewMachine(&fakeAPI{})
	assert.ErrorIs(t, m.SaveAccepted(context.Background()), ErrNotInReview)
}

func TestStateReturnsSnapshot(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})

	snap := m.State()
	snap.Proposals[0].Status = StatusRejected

	assert.Equal(t, StatusPending, m.State().Proposals[0].Status, "sửa snapshot không được ảnh hưởng state thật")
}

func TestReset(t *testing.T) {
	m := machineInReview(t, &fakeAPI{})
	m.AcceptAll()

	m.Reset()
	state := m.State()
	assert.Equal(t, StepInput, state.Step)
	assert.Empty(t, state.Proposals)
	assert.Empty(t, state.SourceText)
}

package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"resume-structurer/internal/constants"
	"resume-structurer/internal/parser"
	"resume-structurer/internal/storage"
	"resume-structurer/internal/storage/models"
	"resume-structurer/internal/types"
)

const sampleResume = `John Smith
john.smith@example.com | +1 555 123 4567

Summary
Backend engineer with eight years of experience building distributed systems.

Skills
Go, Python, AWS, Kubernetes

Experience
Senior Engineer at Acme Corp
2019 - Present
`

// ---- fakes ----

type memCache struct {
	mu   sync.Mutex
	data map[string]*types.StructuredResume
	gets int
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string]*types.StructuredResume{}}
}

func (c *memCache) GetStructured(_ context.Context, key string) (*types.StructuredResume, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	if r, ok := c.data[key]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

func (c *memCache) SetStructured(_ context.Context, key string, res *types.StructuredResume) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = res
	return nil
}

type memDedup struct {
	seen    map[string]string
	removed []string
}

func (d *memDedup) CheckAndSetFileMD5(_ context.Context, md5Hex, uuid string) (bool, string, error) {
	if existing, ok := d.seen[md5Hex]; ok {
		return true, existing, nil
	}
	d.seen[md5Hex] = uuid
	return false, "", nil
}

func (d *memDedup) RemoveFileMD5(_ context.Context, md5Hex string) error {
	delete(d.seen, md5Hex)
	d.removed = append(d.removed, md5Hex)
	return nil
}

type memObjects struct {
	files map[string][]byte
	texts map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{files: map[string][]byte{}, texts: map[string]string{}}
}

func (o *memObjects) UploadResumeFileStreaming(_ context.Context, uuid, ext string, r io.Reader, _ int64) (string, string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	key := storage.OriginalObjectKey(uuid, ext)
	o.files[key] = b
	return key, "", nil
}

func (o *memObjects) UploadExtractedText(_ context.Context, uuid, text string) (string, error) {
	key := storage.ExtractedTextObjectKey(uuid)
	o.texts[key] = text
	return key, nil
}

func (o *memObjects) GetResumeFile(_ context.Context, key string) ([]byte, error) {
	b, ok := o.files[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return b, nil
}

func (o *memObjects) DeleteResumeFile(_ context.Context, key string) error {
	delete(o.files, key)
	return nil
}

type memRepo struct {
	subs      map[string]*models.ResumeSubmission
	createErr error
	getErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{subs: map[string]*models.ResumeSubmission{}}
}

func (r *memRepo) CreateSubmission(_ context.Context, s *models.ResumeSubmission) error {
	if r.createErr != nil {
		return r.createErr
	}
	cp := *s
	r.subs[s.SubmissionUUID] = &cp
	return nil
}

func (r *memRepo) UpdateSubmissionStatus(ctx context.Context, uuid, status, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := r.subs[uuid]
	if !ok {
		return storage.ErrSubmissionNotFound
	}
	s.ProcessingStatus = status
	s.ErrorMessage = errMsg
	return nil
}

func (r *memRepo) GetSubmission(ctx context.Context, uuid string) (*models.ResumeSubmission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.subs[uuid]
	if !ok {
		return nil, storage.ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memRepo) SaveParsedResume(_ context.Context, res storage.ParsedResult) error {
	s, ok := r.subs[res.SubmissionUUID]
	if !ok {
		return storage.ErrSubmissionNotFound
	}
	js, err := datatypesJSON(res.Resume)
	if err != nil {
		return err
	}
	s.ProcessingStatus = constants.StatusParsed
	s.ExtractedTextPathOSS = res.ExtractedTextKey
	s.Parsed = &models.ParsedResume{
		SubmissionUUID: res.SubmissionUUID,
		StructuredJSON: js,
		Completion:     res.Resume.Completion,
		Pages:          res.Meta.Pages,
		Characters:     res.Meta.Characters,
		Engine:         res.Meta.Engine,
	}
	return nil
}

type memPublisher struct {
	msgs []storage.ResumeUploadMessage
	err  error
}

func (p *memPublisher) PublishUpload(_ context.Context, msg storage.ResumeUploadMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func datatypesJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	return datatypes.JSON(b), err
}

type fixture struct {
	svc       *ResumeService
	cache     *memCache
	dedup     *memDedup
	objects   *memObjects
	repo      *memRepo
	publisher *memPublisher
}

func newFixture() *fixture {
	f := &fixture{
		cache:     newMemCache(),
		dedup:     &memDedup{seen: map[string]string{}},
		objects:   newMemObjects(),
		repo:      newMemRepo(),
		publisher: &memPublisher{},
	}
	f.svc = NewResumeService(parser.NewDocumentExtractor(nil),
		WithResultCache(f.cache),
		WithDedupStore(f.dedup),
		WithObjectStore(f.objects),
		WithSubmissionRepository(f.repo),
		WithUploadPublisher(f.publisher),
	)
	return f
}

// ---- tests ----

func TestStructureTextUsesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.svc.StructureText(ctx, sampleResume)
	require.NotNil(t, first)
	assert.Equal(t, "john.smith@example.com", first.PersonalInfo.Email)
	assert.Len(t, f.cache.data, 1)

	second := f.svc.StructureText(ctx, sampleResume)
	assert.Same(t, first, second, "第二次应直接返回缓存结果")
	assert.Equal(t, 2, f.cache.gets)
}

func TestStructureTextCacheFailureIgnored(t *testing.T) {
	f := newFixture()
	f.cache.err = errors.New("redis down")

	res := f.svc.StructureText(context.Background(), sampleResume)
	require.NotNil(t, res)
	assert.Equal(t, "john.smith@example.com", res.PersonalInfo.Email)
}

func TestStructureTextWithoutCache(t *testing.T) {
	svc := NewResumeService(parser.NewDocumentExtractor(nil))
	res := svc.StructureText(context.Background(), "")
	require.NotNil(t, res)
	assert.Empty(t, res.Skills)
	assert.False(t, svc.SupportsAsync())
}

func TestExtractAndStructurePlainText(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.ExtractAndStructure(context.Background(), "resume.txt", []byte(sampleResume))
	require.NoError(t, err)

	assert.Equal(t, "resume.txt", doc.Meta.Filename)
	assert.Equal(t, int64(len(sampleResume)), doc.Meta.Size)
	assert.Equal(t, parser.MIMEPlain, doc.Meta.MIMEType)
	assert.Equal(t, 1, doc.Meta.Pages)
	assert.Greater(t, doc.Meta.Characters, 0)
	assert.Equal(t, "plain", doc.Meta.Engine)
	assert.Equal(t, "john.smith@example.com", doc.Resume.PersonalInfo.Email)
}

func TestExtractAndStructureErrors(t *testing.T) {
	svc := NewResumeService(parser.NewDocumentExtractor(nil, parser.WithMaxSize(64)))
	ctx := context.Background()

	_, err := svc.ExtractAndStructure(ctx, "big.txt", []byte(sampleResume))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.ExtractAndStructure(ctx, "img.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = svc.ExtractAndStructure(ctx, "empty.txt", nil)
	assert.ErrorIs(t, err, ErrDecodeFailed)

	var docErr *DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "extract", docErr.Op)
	assert.Equal(t, "empty.txt", docErr.Filename)
	assert.True(t, IsDocumentError(err))
}

func TestSubmitRequiresStorage(t *testing.T) {
	svc := NewResumeService(parser.NewDocumentExtractor(nil))
	_, err := svc.Submit(context.Background(), "a.txt", "api", []byte(sampleResume))
	assert.ErrorIs(t, err, ErrStorageNotInit)

	_, err = svc.GetSubmission(context.Background(), "x")
	assert.ErrorIs(t, err, ErrStorageNotInit)
}

func TestSubmitAndProcess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, "john.txt", "api", []byte(sampleResume))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusPendingParsing, res.Status)
	require.Len(t, f.publisher.msgs, 1)

	msg := f.publisher.msgs[0]
	assert.Equal(t, res.SubmissionUUID, msg.SubmissionUUID)
	assert.Equal(t, storage.OriginalObjectKey(res.SubmissionUUID, ".txt"), msg.OriginalFilePathOSS)
	assert.Equal(t, constants.StatusPendingParsing, f.repo.subs[res.SubmissionUUID].ProcessingStatus)

	require.NoError(t, f.svc.ProcessSubmission(ctx, msg))

	view, err := f.svc.GetSubmission(ctx, res.SubmissionUUID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusParsed, view.Status)
	require.NotNil(t, view.Resume)
	assert.Equal(t, "john.smith@example.com", view.Resume.PersonalInfo.Email)
	require.NotNil(t, view.Meta)
	assert.Equal(t, "plain", view.Meta.Engine)
	assert.Contains(t, f.objects.texts, storage.ExtractedTextObjectKey(res.SubmissionUUID))

	// 重复消息不会再次处理
	require.NoError(t, f.svc.ProcessSubmission(ctx, msg))
}

func TestSubmitDuplicateFile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, "john.txt", "api", []byte(sampleResume))
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, "copy.txt", "api", []byte(sampleResume))
	require.NoError(t, err)

	assert.Equal(t, constants.StatusDuplicateFile, second.Status)
	assert.Equal(t, first.SubmissionUUID, second.SubmissionUUID)
	assert.Len(t, f.publisher.msgs, 1)
}

func TestSubmitRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("db down")

	_, err := f.svc.Submit(context.Background(), "john.txt", "api", []byte(sampleResume))
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.Empty(t, f.objects.files, "原始文件应被删除")
	assert.Len(t, f.dedup.removed, 1)
	assert.Empty(t, f.publisher.msgs)
}

func TestSubmitPublishFailure(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.Submit(context.Background(), "john.txt", "api", []byte(sampleResume))
	require.ErrorIs(t, err, ErrPublishFailed)

	var docErr *DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, constants.StatusStoreFailed, f.repo.subs[docErr.SubmissionUUID].ProcessingStatus)
}

func TestSubmitRejectsUnsupported(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Submit(context.Background(), "img.png", "api", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Empty(t, f.objects.files)
}

func TestProcessSubmissionExtractionFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uuid := "0190a5b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b"
	key := storage.OriginalObjectKey(uuid, ".txt")
	f.objects.files[key] = []byte("   \n\t  ")
	f.repo.subs[uuid] = &models.ResumeSubmission{SubmissionUUID: uuid, ProcessingStatus: constants.StatusPendingParsing}

	err := f.svc.ProcessSubmission(ctx, storage.ResumeUploadMessage{
		SubmissionUUID:      uuid,
		OriginalFilename:    "blank.txt",
		OriginalFilePathOSS: key,
	})
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, constants.StatusExtractionFailed, f.repo.subs[uuid].ProcessingStatus)
	assert.NotEmpty(t, f.repo.subs[uuid].ErrorMessage)
}

func TestProcessSubmissionUnknown(t *testing.T) {
	f := newFixture()
	err := f.svc.ProcessSubmission(context.Background(), storage.ResumeUploadMessage{
		SubmissionUUID:      "0190a5b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b",
		OriginalFilePathOSS: "resume/x/original.pdf",
	})
	assert.NoError(t, err)
}

func TestGetSubmissionValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.GetSubmission(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidSubmissionUUID)

	_, err = f.svc.GetSubmission(ctx, "0190a5b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestConsumeHandler(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	handle := f.svc.ConsumeHandler()

	ack, requeue := handle(ctx, []byte("not json"))
	assert.False(t, ack)
	assert.False(t, requeue)

	res, err := f.svc.Submit(ctx, "john.txt", "api", []byte(sampleResume))
	require.NoError(t, err)
	body, err := json.Marshal(f.publisher.msgs[0])
	require.NoError(t, err)

	ack, _ = handle(ctx, body)
	assert.True(t, ack)
	assert.Equal(t, constants.StatusParsed, f.repo.subs[res.SubmissionUUID].ProcessingStatus)
}

func TestConsumeHandlerStorageFailure(t *testing.T) {
	f := newFixture()
	uuid := "0190a5b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b"
	f.repo.subs[uuid] = &models.ResumeSubmission{SubmissionUUID: uuid, ProcessingStatus: constants.StatusPendingParsing}

	body, err := json.Marshal(storage.ResumeUploadMessage{
		SubmissionUUID:      uuid,
		OriginalFilename:    "gone.pdf",
		OriginalFilePathOSS: "resume/gone/original.pdf",
	})
	require.NoError(t, err)

	ack, requeue := f.svc.ConsumeHandler()(context.Background(), body)
	assert.False(t, ack)
	assert.False(t, requeue)
	assert.Equal(t, constants.StatusStoreFailed, f.repo.subs[uuid].ProcessingStatus)
}

func pendingSubmission(t *testing.T, f *fixture) (string, []byte) {
	t.Helper()
	uuid := "0190a5b2-7c3e-7d4f-8a1b-2c3d4e5f6a7c"
	f.repo.subs[uuid] = &models.ResumeSubmission{SubmissionUUID: uuid, ProcessingStatus: constants.StatusPendingParsing}
	body, err := json.Marshal(storage.ResumeUploadMessage{
		SubmissionUUID:      uuid,
		OriginalFilename:    "john.txt",
		OriginalFilePathOSS: "resume/x/original.txt",
	})
	require.NoError(t, err)
	return uuid, body
}

func TestConsumeHandlerRequeuesCancelled(t *testing.T) {
	f := newFixture()
	uuid, body := pendingSubmission(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ack, requeue := f.svc.ConsumeHandler()(ctx, body)
	assert.False(t, ack)
	assert.True(t, requeue, "被取消的处理应重新入队")
	assert.Equal(t, constants.StatusPendingParsing, f.repo.subs[uuid].ProcessingStatus)
}

func TestConsumeHandlerRequeuesTransientDBError(t *testing.T) {
	f := newFixture()
	uuid, body := pendingSubmission(t, f)
	f.repo.getErr = errors.New("connection refused")

	ack, requeue := f.svc.ConsumeHandler()(context.Background(), body)
	assert.False(t, ack)
	assert.True(t, requeue)
	assert.Equal(t, constants.StatusPendingParsing, f.repo.subs[uuid].ProcessingStatus)
}

func TestFailWritesStatusAfterCancel(t *testing.T) {
	f := newFixture()
	uuid, _ := pendingSubmission(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.svc.fail(ctx, uuid, constants.StatusStoreFailed, errors.New("bucket missing"))
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, constants.StatusStoreFailed, f.repo.subs[uuid].ProcessingStatus)
	assert.Equal(t, "bucket missing", f.repo.subs[uuid].ErrorMessage)

	err = f.svc.fail(ctx, uuid, constants.StatusExtractionFailed, fmt.Errorf("下载超时: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, ErrRetryable)
	assert.Equal(t, constants.StatusStoreFailed, f.repo.subs[uuid].ProcessingStatus, "超时不应覆盖状态")
}

func TestDocumentErrorMessage(t *testing.T) {
	err := NewStoreError("a.pdf", "u-1", errors.New("disk full"))
	assert.Contains(t, err.Error(), "操作:store")
	assert.Contains(t, err.Error(), "UUID:u-1")
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.False(t, IsDocumentError(err))
}

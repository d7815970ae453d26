package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/observability"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/qrcode"
)

// ErrQRCodeRender 二维码图片生成失败
var ErrQRCodeRender = errors.New("二维码生成失败")

// QRCodeService 二维码图片业务接口
type QRCodeService interface {
	// Proxy 透传前端样式参数，返回 PNG
	Proxy(ctx context.Context, req *qrcode.RenderRequest) ([]byte, error)
	PersonQRCode(ctx context.Context, personID string) ([]byte, error)
	PersonBadge(ctx context.Context, personID string) ([]byte, string, error)
}

type qrcodeService struct {
	repo        *repository.Repository
	remote      qrcode.Renderer // nil 表示关闭远程渲染
	local       qrcode.Renderer
	defaultSize int
	logger      *zap.Logger
}

// NewQRCodeService 创建 QRCodeService 实例
func NewQRCodeService(repo *repository.Repository, remote, local qrcode.Renderer, defaultSize int, logger *zap.Logger) QRCodeService {
	return &qrcodeService{
		repo:        repo,
		remote:      remote,
		local:       local,
		defaultSize: defaultSize,
		logger:      logger,
	}
}

// ────────────────────── Proxy ──────────────────────

func (s *qrcodeService) Proxy(ctx context.Context, req *qrcode.RenderRequest) ([]byte, error) {
	if req == nil || req.Data == "" {
		return nil, fmt.Errorf("%w: %v", ErrQRCodeRender, qrcode.ErrEmptyData)
	}
	if req.File == "" {
		req.File = "png"
	}

	renderer, name := s.local, "local"
	if s.remote != nil {
		renderer, name = s.remote, "remote"
	}

	start := time.Now()
	png, err := renderer.Render(ctx, req)
	observability.ObserveQRRender(name, start, err)
	if err != nil {
		s.logger.Error("二维码代理渲染失败", zap.String("renderer", name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQRCodeRender, err)
	}
	return png, nil
}

// ────────────────────── PersonQRCode ──────────────────────

// PersonQRCode 详情页二维码：优先远程样式渲染，失败时本地兜底
func (s *qrcodeService) PersonQRCode(ctx context.Context, personID string) ([]byte, error) {
	person, err := s.getPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, person.QRCode)
}

// ────────────────────── PersonBadge ──────────────────────

// PersonBadge A6 竖版胸牌：姓名、部门、二维码及其文本
func (s *qrcodeService) PersonBadge(ctx context.Context, personID string) ([]byte, string, error) {
	person, err := s.getPerson(ctx, personID)
	if err != nil {
		return nil, "", err
	}

	png, err := s.render(ctx, person.QRCode)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(8, 8, 8)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()

	pdf.SetFillColor(26, 26, 26)
	pdf.Rect(0, 0, pageW, 14, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(8, 3)
	pdf.CellFormat(pageW-16, 8, "ATTENDEE", "", 0, "C", false, 0, "")

	pdf.SetTextColor(26, 26, 26)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(8, 22)
	pdf.MultiCell(pageW-16, 8, tr(person.Name), "", "C", false)

	if dept := deref(person.Department); dept != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetX(8)
		pdf.CellFormat(pageW-16, 7, tr(dept), "", 1, "C", false, 0, "")
	}

	qrSize := 60.0
	qrY := pdf.GetY() + 6
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(png))
	pdf.ImageOptions("qr", (pageW-qrSize)/2, qrY, qrSize, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetFont("Courier", "", 8)
	pdf.SetXY(8, qrY+qrSize+4)
	pdf.CellFormat(pageW-16, 5, person.QRCode, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error("生成胸牌 PDF 失败", zap.String("person_id", personID), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrQRCodeRender, err)
	}

	return buf.Bytes(), fmt.Sprintf("badge_%s.pdf", sanitizeFilename(person.Name)), nil
}

// ── 内部辅助方法 ──

func (s *qrcodeService) render(ctx context.Context, code string) ([]byte, error) {
	req := qrcode.NewRenderRequest(code, qrcode.PersonStyle(s.defaultSize))

	if s.remote != nil {
		start := time.Now()
		png, err := s.remote.Render(ctx, req)
		observability.ObserveQRRender("remote", start, err)
		if err == nil {
			return png, nil
		}
		s.logger.Warn("远程二维码渲染失败，改用本地渲染", zap.Error(err))
	}

	start := time.Now()
	png, err := s.local.Render(ctx, req)
	observability.ObserveQRRender("local", start, err)
	if err != nil {
		s.logger.Error("本地二维码渲染失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQRCodeRender, err)
	}
	return png, nil
}

func (s *qrcodeService) getPerson(ctx context.Context, id string) (*model.Person, error) {
	person, err := s.repo.Person.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.String("person_id", id), zap.Error(err))
		return nil, pkgerrors.Store("people.get", err)
	}
	return person, nil
}

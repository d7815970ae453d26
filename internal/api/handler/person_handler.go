package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/service"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// PersonHandler 人员模块 HTTP 处理器
type PersonHandler struct {
	personSvc   service.PersonService
	maxFileSize int64
}

// NewPersonHandler 创建 PersonHandler；maxFileSize 为导入文件大小上限（字节）
func NewPersonHandler(personSvc service.PersonService, maxFileSize int64) *PersonHandler {
	return &PersonHandler{personSvc: personSvc, maxFileSize: maxFileSize}
}

// ListPeople 在册人员列表
// GET /api/v1/people?keyword=xxx
func (h *PersonHandler) ListPeople(c *gin.Context) {
	var req dto.PersonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	people, err := h.personSvc.ListActive(c.Request.Context(), req.Keyword)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": people})
}

// GetPerson 人员详情（含最近签到）
// GET /api/v1/people/:id
func (h *PersonHandler) GetPerson(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handlePersonError(c, service.ErrPersonNotFound)
		return
	}

	detail, err := h.personSvc.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}

	response.OK(c, detail)
}

// CreatePerson 新增人员
// POST /api/v1/people
func (h *PersonHandler) CreatePerson(c *gin.Context) {
	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	person, err := h.personSvc.Add(c.Request.Context(), &req)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}

	response.Created(c, person)
}

// UpdatePerson 编辑人员
// PUT /api/v1/people/:id
func (h *PersonHandler) UpdatePerson(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handlePersonError(c, service.ErrPersonNotFound)
		return
	}

	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	person, err := h.personSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}

	response.OK(c, person)
}

// DeletePerson 删除人员（软删除）
// DELETE /api/v1/people/:id
func (h *PersonHandler) DeletePerson(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handlePersonError(c, service.ErrPersonNotFound)
		return
	}

	if err := h.personSvc.Delete(c.Request.Context(), id); err != nil {
		h.handlePersonError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportPeople 批量导入（CSV / XLSX）
// POST /api/v1/people/import  (multipart/form-data, field: file)
func (h *PersonHandler) ImportPeople(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 13006, "请上传导入文件")
		return
	}
	if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
		response.BadRequest(c, 13007, "导入文件过大")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 13006, "无法读取上传文件")
		return
	}
	defer f.Close()

	rows, err := h.personSvc.ParseImportFile(fh.Filename, f)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}

	result, err := h.personSvc.Import(c.Request.Context(), rows)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportTemplate 下载 CSV 导入模板
// GET /api/v1/people/import/template
func (h *PersonHandler) ImportTemplate(c *gin.Context) {
	response.Attachment(c, "text/csv; charset=utf-8", "people_template.csv", h.personSvc.ImportTemplate())
}

func (h *PersonHandler) handlePersonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 13001, "人员不存在")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 13002, "导入文件无数据行（第一行为表头）")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 13004, "导入文件表头缺少 name 列")
	case errors.Is(err, service.ErrImportUnsupportedFile):
		response.BadRequest(c, 13005, "仅支持 .csv 或 .xlsx 文件")
	case errors.Is(err, service.ErrImportMalformed):
		response.BadRequest(c, 13008, err.Error())
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}

package book

import (
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// 领域错误定义
// 设计说明:
// 1. 领域错误复用pkg/errors的错误码，调用方用errors.Is按类别判断
// 2. 错误信息面向API调用方
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeNotFound, "图书不存在")

	// ErrInvalidISBN ISBN为空
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN不能为空")

	// ErrInvalidType 未知的图书形态
	ErrInvalidType = apperrors.New(apperrors.ErrCodeInvalidParams, "图书形态必须是physical、ebook或both")

	// ErrInvalidEdition 版次必须大于等于1
	ErrInvalidEdition = apperrors.New(apperrors.ErrCodeInvalidParams, "版次必须大于等于1")

	// ErrNoAuthors 图书至少有一位作者
	ErrNoAuthors = apperrors.New(apperrors.ErrCodeInvalidParams, "图书至少需要一位作者")

	// ErrInvalidData 本地化数据缺少标题或语言
	ErrInvalidData = apperrors.New(apperrors.ErrCodeInvalidParams, "图书数据必须包含标题和语言")
)

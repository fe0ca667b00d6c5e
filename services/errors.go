package services

import (
	"errors"
	"fmt"
	"strings"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// AppError is a business-rule failure with a stable code and a message
// that is safe to show to the user.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Code + ": " + e.Message }

// Is matches on Code so wrapped or re-messaged errors still compare equal.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithMessage keeps the code and kind but replaces the user message.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newErr(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Validation builds a 400-class error for malformed input.
func Validation(message string) *AppError {
	return newErr(KindValidation, "error.validation", message)
}

var (
	ErrUnauthorized       = newErr(KindUnauthorized, "error.unauthorized", "未登录或登录已过期")
	ErrInvalidCredentials = newErr(KindUnauthorized, "error.invalidCredentials", "邮箱或密码错误")
	ErrForbidden          = newErr(KindForbidden, "error.forbidden", "权限不足")
	ErrStoreForbidden     = newErr(KindForbidden, "error.storeForbidden", "无权访问该门店")

	ErrBookingNotFound  = newErr(KindNotFound, "error.bookingNotFound", "订单不存在")
	ErrStoreNotFound    = newErr(KindNotFound, "error.storeNotFound", "门店不存在")
	ErrRoomTypeNotFound = newErr(KindNotFound, "error.roomTypeNotFound", "房型不存在")
	ErrRoomNotFound     = newErr(KindNotFound, "error.roomNotFound", "房间不存在")
	ErrCustomerNotFound = newErr(KindNotFound, "error.customerNotFound", "客户不存在")
	ErrUserNotFound     = newErr(KindNotFound, "error.userNotFound", "用户不存在")

	ErrInvalidDateRange  = newErr(KindValidation, "error.invalidDateRange", "离店日期必须晚于入住日期")
	ErrCheckInInPast     = newErr(KindValidation, "error.checkInInPast", "入住日期不能早于今天")
	ErrInvalidRating     = newErr(KindValidation, "error.invalidRating", "评分必须在1-5之间")
	ErrCommentTooLong    = newErr(KindValidation, "error.commentTooLong", "评价内容不能超过500字")
	ErrRoomWrongStore    = newErr(KindValidation, "error.roomWrongStore", "房间不属于该订单门店")
	ErrNoRoomsAssigned   = newErr(KindValidation, "error.noRoomsAssigned", "请先分配房间")
	ErrReviewNotAllowed  = newErr(KindValidation, "error.reviewNotAllowed", "只能评价已离店订单")
	ErrCannotCancel      = newErr(KindValidation, "error.cannotCancel", "只能取消待确认或已确认的订单")
	ErrInvalidPhone      = newErr(KindValidation, "error.invalidPhone", "手机号格式不正确")
	ErrCannotDeleteSelf  = newErr(KindValidation, "error.cannotDeleteSelf", "不能删除自己")
	ErrInvalidRoomStatus = newErr(KindValidation, "error.invalidRoomStatus", "无效的房间状态")

	ErrInvalidTransition   = newErr(KindConflict, "error.invalidTransition", "当前订单状态不允许此操作")
	ErrRoomUnavailable     = newErr(KindConflict, "error.roomUnavailable", "房间已不可用")
	ErrNoRoomsAvailable    = newErr(KindConflict, "error.noRoomsAvailable", "该房型在所选日期已无可用房间")
	ErrAlreadyReviewed     = newErr(KindConflict, "error.alreadyReviewed", "该订单已评价")
	ErrBookingNotDeletable = newErr(KindConflict, "error.bookingNotDeletable", "只能删除待确认、已取消或已完成的订单")
	ErrDuplicateName       = newErr(KindConflict, "error.duplicateName", "名称已存在")
	ErrDuplicateEmail      = newErr(KindConflict, "error.duplicateEmail", "邮箱已存在")
	ErrDuplicateRoomNo     = newErr(KindConflict, "error.duplicateRoomNo", "该门店已存在相同房间号")
	ErrStoreInUse          = newErr(KindConflict, "error.storeInUse", "门店仍有关联数据，无法删除")
	ErrRoomTypeInUse       = newErr(KindConflict, "error.roomTypeInUse", "房型仍有关联数据，无法删除")
	ErrRoomInUse           = newErr(KindConflict, "error.roomInUse", "该房间有活跃的预订，无法删除")
)

// isDuplicateKey recognises unique-constraint violations from every
// supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqlDriver.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}

// notFound maps gorm.ErrRecordNotFound to the given domain error.
func notFound(err error, domainErr *AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

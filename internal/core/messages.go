package core

import (
	"errors"
	"fmt"

	"lostfound/pkg/domain"
)

// Notification texts shown to the operator.
const (
	msgUnconfiguredRule = "错误：所选的分类或地点尚未在“规则配置”中设置代码。"
	msgClaimedLocked    = "已认领 (不可删除)"
)

func msgCategoryAdded(rule EncodingRule) string {
	return fmt.Sprintf("已成功添加规则：%s -> [%s]", rule.Label, rule.Code)
}

func msgRuleUpdated(rule EncodingRule) string {
	code := rule.Code
	if code == "" {
		code = "未设置"
	}
	return fmt.Sprintf("规则已更新：%s -> [%s]", rule.Label, code)
}

func msgCategoryRemoved(rule EncodingRule) string {
	return fmt.Sprintf("已删除分类：%s", rule.Label)
}

func msgItemRegistered(item LostItem) string {
	return fmt.Sprintf("物品登记成功！已生成编码：%s", item.GeneratedCode)
}

func msgItemClaimed(item LostItem) string {
	return fmt.Sprintf("物品 %s 已成功认领！", item.ItemName)
}

func msgItemRemoved(item LostItem) string {
	return fmt.Sprintf("已删除物品：%s (%s)", item.ItemName, item.GeneratedCode)
}

// failureMessage renders err for the operation that produced it.
func failureMessage(op string, err error) string {
	var dup domain.DuplicateCodeError
	if errors.As(err, &dup) {
		switch {
		case op == opAddCategory:
			return fmt.Sprintf("添加失败：代码 \"%s\" 已经被使用，请更换其他字符。", dup.Code)
		case dup.Namespace == domain.NamespaceLocation:
			return fmt.Sprintf("规则冲突：地点代码 \"%s\" 已存在！", dup.Code)
		default:
			return fmt.Sprintf("规则冲突：代码 \"%s\" 已被其他分类占用！", dup.Code)
		}
	}
	var claimed domain.AlreadyClaimedError
	if errors.As(err, &claimed) {
		if op == opRemoveItem {
			return msgClaimedLocked
		}
		return fmt.Sprintf("认领失败：该物品已被 %s 认领。", claimed.ClaimedBy)
	}
	var validation domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnconfiguredRule):
		return msgUnconfiguredRule
	case errors.As(err, &validation):
		return fmt.Sprintf("输入有误：%s", validation.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("未找到记录：%v", err)
	default:
		return fmt.Sprintf("操作失败：%v", err)
	}
}

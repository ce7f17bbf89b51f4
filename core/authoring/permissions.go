package authoring

import (
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

func canView(usr user.User, owner, sharing string) bool {
	return usr.IsAdmin() || usr.ID == owner || sharing == SharingPublic
}

func CanControlScale(usr user.User, s Scale) bool {
	return usr.IsAdmin() || usr.ID == s.Owner
}

func CanControlItem(usr user.User, it Item) bool {
	return usr.IsAdmin() || usr.ID == it.Owner
}

func CanControlTemplate(usr user.User, tmpl Template) bool {
	return usr.IsAdmin() || usr.ID == tmpl.Owner
}

// CanRemoveScale: the scale can be controlled, is not locked and is used by no item.
func CanRemoveScale(usr user.User, s Scale, usedBy int) bool {
	return ScaleRemovalError(usr, s, usedBy) == nil
}

// CanRemoveItem: the item can be controlled, is not locked and is used by no template.
func CanRemoveItem(usr user.User, it Item, usedBy int) bool {
	return ItemRemovalError(usr, it, usedBy) == nil
}

// CanRemoveTemplateItem: the template can be controlled and is not locked.
func CanRemoveTemplateItem(usr user.User, tmpl Template) bool {
	return TemplateItemRemovalError(usr, tmpl) == nil
}

// ScaleRemovalError returns why the scale cannot be removed, or nil.
func ScaleRemovalError(usr user.User, s Scale, usedBy int) error {
	switch {
	case !CanControlScale(usr, s):
		return core.ErrPermissionDenied
	case s.Locked:
		return ErrScaleLocked
	case usedBy > 0:
		return ErrScaleInUse
	}
	return nil
}

// ItemRemovalError returns why the item cannot be removed, or nil.
func ItemRemovalError(usr user.User, it Item, usedBy int) error {
	switch {
	case !CanControlItem(usr, it):
		return core.ErrPermissionDenied
	case it.Locked:
		return ErrItemLocked
	case usedBy > 0:
		return ErrItemInUse
	}
	return nil
}

// TemplateItemRemovalError returns why an item cannot be removed from the template, or nil.
func TemplateItemRemovalError(usr user.User, tmpl Template) error {
	switch {
	case !CanControlTemplate(usr, tmpl):
		return core.ErrPermissionDenied
	case tmpl.Locked:
		return ErrTemplateLocked
	}
	return nil
}

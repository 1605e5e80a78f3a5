package usecase

// Operator-facing notification texts.
const (
	MsgLeadCreated   = "הליד נוצר בהצלחה!"
	MsgLeadUpdated   = "הליד עודכן בהצלחה!"
	MsgLeadDeleted   = "הליד נמחק בהצלחה!"
	MsgSaveFailed    = "שגיאה בשמירת הליד. נסי שוב."
	MsgDeleteFailed  = "שגיאה במחיקת הליד."
	MsgLoadFailed    = "שגיאה בטעינת הלידים. בדקי את ההרשאות."
	MsgConfirmDelete = "את בטוחה שרוצה למחוק את הליד הזה?"
)

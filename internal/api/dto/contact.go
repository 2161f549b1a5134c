package dto

import "mailcenter-service/internal/domain"

type ContactResponse struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	MailboxNo string `json:"mailbox_no,omitempty"`
}

type ListContactsResponse struct {
	Contacts []ContactResponse `json:"contacts"`
}

func ContactFromDomain(c domain.Contact) ContactResponse {
	return ContactResponse{
		ContactID: c.ContactID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		MailboxNo: c.MailboxNo,
	}
}
